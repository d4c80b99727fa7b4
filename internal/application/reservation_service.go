package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/lock"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

const dateLayout = "2006-01-02"

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	RoomExists(ctx context.Context, id string) (bool, error)
}

// ReservationService admits, replaces and removes reservations.
//
// Every write checks the candidate against a fresh snapshot of the room's
// reservations for that date while holding the (room, date) lock, so two
// overlapping admissions can never both succeed.
type ReservationService struct {
	store       persistence.ReservationRepository
	rooms       RoomCatalog
	locker      lock.Locker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
// A nil locker selects an in-process keyed mutex.
func NewReservationService(store persistence.ReservationRepository, rooms RoomCatalog, locker lock.Locker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		store:       store,
		rooms:       rooms,
		locker:      locker,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// Create validates the input and stores it unless it overlaps an existing
// reservation of the same room on the same date.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	input := normalizeInput(params.Input)
	logger := s.loggerWith(ctx, "Create",
		"room_id", input.RoomID,
		"date", input.Date,
		"start_time", input.StartTime,
		"end_time", input.EndTime,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation created",
			"reservation_id", reservation.ID,
			"organizer", reservation.Organizer,
			"origin", params.Origin,
		)
	}()

	if err = s.validate(ctx, input); err != nil {
		return
	}

	var release lock.Release
	release, err = lock.Acquire(ctx, s.locker, lock.Key(input.RoomID, input.Date))
	if err != nil {
		err = fmt.Errorf("acquire reservation lock: %w", err)
		return
	}
	defer s.release(ctx, logger, release)

	if err = s.admit(ctx, input); err != nil {
		return
	}

	id := input.ID
	if id == "" {
		id = s.idGenerator()
	}
	createdAt := s.now()
	reservation = Reservation{
		ID:               id,
		RoomID:           input.RoomID,
		Date:             input.Date,
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
		Title:            input.Title,
		Organizer:        input.Organizer,
		ParticipantNames: input.ParticipantNames,
		OriginIdentifier: optionalString(params.Origin),
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}

	if err = s.store.CreateReservation(ctx, toRecord(reservation)); err != nil {
		reservation = Reservation{}
		err = mapReservationRepoError(err)
		return
	}
	return
}

// Update replaces the fields of an existing reservation. The replacement is
// checked against every other reservation of its room and date; the record
// being replaced never conflicts with itself. ID and CreatedAt are kept.
func (s *ReservationService) Update(ctx context.Context, params UpdateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("reservation store not configured")
		return
	}

	input := normalizeInput(params.Input)
	input.ID = params.ReservationID
	logger := s.loggerWith(ctx, "Update",
		"reservation_id", params.ReservationID,
		"room_id", input.RoomID,
		"date", input.Date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation updated", "organizer", reservation.Organizer, "origin", params.Origin)
	}()

	var current persistence.Reservation
	current, err = s.store.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	if err = s.validate(ctx, input); err != nil {
		return
	}

	var release lock.Release
	release, err = lock.Acquire(ctx, s.locker,
		lock.Key(current.RoomID, current.Date),
		lock.Key(input.RoomID, input.Date),
	)
	if err != nil {
		err = fmt.Errorf("acquire reservation lock: %w", err)
		return
	}
	defer s.release(ctx, logger, release)

	// Re-read under the lock; a concurrent delete wins over this update.
	current, err = s.store.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	if err = s.admit(ctx, input); err != nil {
		return
	}

	updated := fromRecord(current)
	updated.RoomID = input.RoomID
	updated.Date = input.Date
	updated.StartTime = input.StartTime
	updated.EndTime = input.EndTime
	updated.Title = input.Title
	updated.Organizer = input.Organizer
	updated.ParticipantNames = input.ParticipantNames
	if origin := optionalString(params.Origin); origin != nil {
		updated.OriginIdentifier = origin
	}
	updated.UpdatedAt = s.now()

	if err = s.store.UpdateReservation(ctx, toRecord(updated)); err != nil {
		err = mapReservationRepoError(err)
		return
	}
	reservation = updated
	return
}

// Delete removes a reservation by ID.
func (s *ReservationService) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("reservation store not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "reservation_id", id)

	current, err := s.store.GetReservation(ctx, id)
	if err == nil {
		err = s.store.DeleteReservation(ctx, id)
	}
	if err != nil {
		err = mapReservationRepoError(err)
		logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "reservation deleted",
		"room_id", current.RoomID,
		"date", current.Date,
		"organizer", current.Organizer,
	)
	return nil
}

// Get returns one reservation by ID.
func (s *ReservationService) Get(ctx context.Context, id string) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return Reservation{}, fmt.Errorf("reservation store not configured")
	}
	record, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	return fromRecord(record), nil
}

// List returns every reservation ordered by date, start time and ID.
func (s *ReservationService) List(ctx context.Context) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	records, err := s.store.ListReservations(ctx)
	if err != nil {
		err = mapReservationRepoError(err)
		s.loggerWith(ctx, "List").ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return fromRecords(records), nil
}

// ListByRoomAndDate returns the reservations of one room on one date.
func (s *ReservationService) ListByRoomAndDate(ctx context.Context, roomID, date string) ([]Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	records, err := s.store.ListReservationsByRoomAndDate(ctx, strings.TrimSpace(roomID), strings.TrimSpace(date))
	if err != nil {
		err = mapReservationRepoError(err)
		s.loggerWith(ctx, "ListByRoomAndDate", "room_id", roomID, "date", date).
			ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return fromRecords(records), nil
}

// Admit runs Create and classifies its outcome.
func (s *ReservationService) Admit(ctx context.Context, params CreateReservationParams) AdmissionResult {
	reservation, err := s.Create(ctx, params)
	result := AdmissionResult{Status: ClassifyAdmission(err), Reservation: reservation, Err: err}

	var cErr *scheduler.ConflictError
	if errors.As(err, &cErr) {
		result.Conflicts = cErr.Conflicts
	}
	return result
}

// ClassifyAdmission maps an error returned by Create or Update to a status.
func ClassifyAdmission(err error) AdmissionStatus {
	if err == nil {
		return AdmissionSuccess
	}
	if errors.Is(err, scheduler.ErrSchedulingConflict) || errors.Is(err, ErrAlreadyExists) {
		return AdmissionConflict
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return AdmissionValidationError
	}
	return AdmissionStoreError
}

// CheckAvailability reports the reservations the candidate would conflict
// with. It takes no lock, so the answer may be stale by the time the caller
// submits; Create and Update check again.
func (s *ReservationService) CheckAvailability(ctx context.Context, input ReservationInput) ([]scheduler.Conflict, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return nil, fmt.Errorf("reservation store not configured")
	}

	input = normalizeInput(input)
	vErr := &ValidationError{}
	validateSchedule(input, vErr)
	if err := s.ensureRoomExists(ctx, input.RoomID, vErr); err != nil {
		return nil, err
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	existing, err := s.snapshot(ctx, input.RoomID, input.Date)
	if err != nil {
		return nil, err
	}
	conflicts, err := scheduler.DetectConflicts(existing, toSchedulerReservation(input))
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	return conflicts, nil
}

// Availability returns the slot grid and start choices of a room on a date.
// A zero cfg selects the default grid.
func (s *ReservationService) Availability(ctx context.Context, roomID, date string, cfg scheduler.SlotConfig) (Availability, error) {
	existing, cfg, err := s.gridInputs(ctx, roomID, date, cfg)
	if err != nil {
		return Availability{}, err
	}

	slots, err := scheduler.GenerateSlots(existing, cfg)
	if err != nil {
		return Availability{}, fmt.Errorf("generate slots: %w", err)
	}
	starts, err := scheduler.StartChoices(existing, cfg)
	if err != nil {
		return Availability{}, fmt.Errorf("start choices: %w", err)
	}

	return Availability{
		RoomID:       strings.TrimSpace(roomID),
		Date:         strings.TrimSpace(date),
		Config:       cfg,
		Slots:        slots,
		StartChoices: starts,
	}, nil
}

// EndChoices returns the end times selectable after start for a room on a date.
func (s *ReservationService) EndChoices(ctx context.Context, roomID, date string, cfg scheduler.SlotConfig, start string) ([]string, error) {
	existing, cfg, err := s.gridInputs(ctx, roomID, date, cfg)
	if err != nil {
		return nil, err
	}
	ends, err := scheduler.EndChoices(existing, cfg, strings.TrimSpace(start))
	if err != nil {
		if errors.Is(err, scheduler.ErrInvalidTimeFormat) {
			vErr := &ValidationError{}
			vErr.add("from", "must be HH:MM")
			return nil, vErr
		}
		return nil, fmt.Errorf("end choices: %w", err)
	}
	return ends, nil
}

func (s *ReservationService) gridInputs(ctx context.Context, roomID, date string, cfg scheduler.SlotConfig) ([]scheduler.Reservation, scheduler.SlotConfig, error) {
	if s == nil {
		return nil, cfg, fmt.Errorf("ReservationService is nil")
	}
	if s.store == nil {
		return nil, cfg, fmt.Errorf("reservation store not configured")
	}

	roomID = strings.TrimSpace(roomID)
	date = strings.TrimSpace(date)
	if cfg == (scheduler.SlotConfig{}) {
		cfg = scheduler.DefaultSlotConfig()
	}

	vErr := &ValidationError{}
	if !validDate(date) {
		vErr.add("date", "date must be YYYY-MM-DD")
	}
	if err := cfg.Validate(); err != nil {
		vErr.add("slots", err.Error())
	}
	if vErr.HasErrors() {
		return nil, cfg, vErr
	}

	if s.rooms != nil {
		exists, err := s.rooms.RoomExists(ctx, roomID)
		if err != nil {
			return nil, cfg, err
		}
		if !exists {
			return nil, cfg, ErrNotFound
		}
	}

	existing, err := s.snapshot(ctx, roomID, date)
	if err != nil {
		return nil, cfg, err
	}
	return existing, cfg, nil
}

func (s *ReservationService) validate(ctx context.Context, input ReservationInput) error {
	vErr := &ValidationError{}
	validateReservationInput(input, vErr)
	if err := s.ensureRoomExists(ctx, input.RoomID, vErr); err != nil {
		return err
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// admit must run while the (room, date) lock is held.
func (s *ReservationService) admit(ctx context.Context, input ReservationInput) error {
	existing, err := s.snapshot(ctx, input.RoomID, input.Date)
	if err != nil {
		return err
	}
	return scheduler.Admit(existing, toSchedulerReservation(input))
}

func (s *ReservationService) snapshot(ctx context.Context, roomID, date string) ([]scheduler.Reservation, error) {
	records, err := s.store.ListReservationsByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	existing := make([]scheduler.Reservation, 0, len(records))
	for _, r := range records {
		existing = append(existing, scheduler.Reservation{
			ID:        r.ID,
			RoomID:    r.RoomID,
			Date:      r.Date,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		})
	}
	return existing, nil
}

func (s *ReservationService) release(ctx context.Context, logger *slog.Logger, release lock.Release) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		logger.WarnContext(ctx, "failed to release reservation lock", "error", err)
	}
}

func (s *ReservationService) ensureRoomExists(ctx context.Context, roomID string, vErr *ValidationError) error {
	if roomID == "" || s.rooms == nil {
		return nil
	}
	exists, err := s.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		vErr.add("room_id", "room does not exist")
	}
	return nil
}

// normalizeInput trims every field and rewrites valid times as zero padded
// HH:MM so that stored values sort and compare as text.
func normalizeInput(input ReservationInput) ReservationInput {
	input.ID = strings.TrimSpace(input.ID)
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.Date = strings.TrimSpace(input.Date)
	input.StartTime = normalizeClock(input.StartTime)
	input.EndTime = normalizeClock(input.EndTime)
	input.Title = strings.TrimSpace(input.Title)
	input.Organizer = strings.TrimSpace(input.Organizer)
	if input.ParticipantNames != nil {
		input.ParticipantNames = optionalString(*input.ParticipantNames)
	}
	return input
}

func normalizeClock(value string) string {
	value = strings.TrimSpace(value)
	if minutes, err := scheduler.ToMinutes(value); err == nil {
		return scheduler.FormatMinutes(minutes)
	}
	return value
}

// reservedIDs collide with fixed /bookings sub-routes.
var reservedIDs = []string{"check"}

func validateReservationInput(input ReservationInput, vErr *ValidationError) {
	if strings.Contains(input.ID, "/") {
		vErr.add("id", "id must not contain '/'")
	} else if slices.Contains(reservedIDs, input.ID) {
		vErr.add("id", fmt.Sprintf("id %q is reserved", input.ID))
	}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Organizer == "" {
		vErr.add("organizer", "organizer is required")
	}
	validateSchedule(input, vErr)
}

func validateSchedule(input ReservationInput, vErr *ValidationError) {
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}

	if input.Date == "" {
		vErr.add("date", "date is required")
	} else if !validDate(input.Date) {
		vErr.add("date", "date must be YYYY-MM-DD")
	}

	_, err := scheduler.ParseInterval(input.StartTime, input.EndTime)
	switch {
	case err == nil:
	case input.StartTime == "":
		vErr.add("start_time", "start time is required")
	case input.EndTime == "":
		vErr.add("end_time", "end time is required")
	case errors.Is(err, scheduler.ErrInvalidInterval):
		vErr.add("time", "start must be before end")
	default:
		if _, startErr := scheduler.ToMinutes(input.StartTime); startErr != nil {
			vErr.add("start_time", "start time must be HH:MM")
		} else {
			vErr.add("end_time", "end time must be HH:MM")
		}
	}
}

func validDate(value string) bool {
	parsed, err := time.Parse(dateLayout, value)
	return err == nil && parsed.Format(dateLayout) == value
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func toSchedulerReservation(input ReservationInput) scheduler.Reservation {
	return scheduler.Reservation{
		ID:        input.ID,
		RoomID:    input.RoomID,
		Date:      input.Date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
}

func toRecord(r Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:               r.ID,
		RoomID:           r.RoomID,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Title:            r.Title,
		Organizer:        r.Organizer,
		ParticipantNames: r.ParticipantNames,
		OriginIdentifier: r.OriginIdentifier,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}.Clone()
}

func fromRecord(r persistence.Reservation) Reservation {
	r = r.Clone()
	return Reservation{
		ID:               r.ID,
		RoomID:           r.RoomID,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Title:            r.Title,
		Organizer:        r.Organizer,
		ParticipantNames: r.ParticipantNames,
		OriginIdentifier: r.OriginIdentifier,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func fromRecords(records []persistence.Reservation) []Reservation {
	persistence.SortReservations(records)
	out := make([]Reservation, 0, len(records))
	for _, r := range records {
		out = append(out, fromRecord(r))
	}
	return out
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	return err
}
