package application

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/lock"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/scheduler"
)

type reservationRepoStub struct {
	mu        sync.Mutex
	records   map[string]persistence.Reservation
	err       error
	listErr   error
	createErr error
}

func newReservationRepoStub(seed ...persistence.Reservation) *reservationRepoStub {
	repo := &reservationRepoStub{records: make(map[string]persistence.Reservation)}
	for _, r := range seed {
		repo.records[r.ID] = r
	}
	return repo
}

func (r *reservationRepoStub) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.records[reservation.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.records[reservation.ID] = reservation.Clone()
	return nil
}

func (r *reservationRepoStub) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.records[reservation.ID]
	if !exists {
		return persistence.ErrNotFound
	}
	reservation.CreatedAt = current.CreatedAt
	r.records[reservation.ID] = reservation.Clone()
	return nil
}

func (r *reservationRepoStub) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return persistence.Reservation{}, r.err
	}
	current, exists := r.records[id]
	if !exists {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return current.Clone(), nil
}

func (r *reservationRepoStub) ListReservations(ctx context.Context) ([]persistence.Reservation, error) {
	return r.list(func(persistence.Reservation) bool { return true })
}

func (r *reservationRepoStub) ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]persistence.Reservation, error) {
	return r.list(func(res persistence.Reservation) bool { return res.RoomID == roomID && res.Date == date })
}

func (r *reservationRepoStub) list(keep func(persistence.Reservation) bool) ([]persistence.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]persistence.Reservation, 0, len(r.records))
	for _, res := range r.records {
		if keep(res) {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

func (r *reservationRepoStub) DeleteReservation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

type roomCatalogStub struct {
	known map[string]bool
	err   error
}

func (c *roomCatalogStub) RoomExists(ctx context.Context, id string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.known[id], nil
}

func defaultCatalog() *roomCatalogStub {
	return &roomCatalogStub{known: map[string]bool{"room-1": true, "room-2": true}}
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	lock.Locker
}

func (l *recordingLocker) Lock(ctx context.Context, key string) (lock.Release, error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return l.Locker.Lock(ctx, key)
}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func stored(id, roomID, start, end string) persistence.Reservation {
	return persistence.Reservation{
		ID: id, RoomID: roomID, Date: "2025-03-10", StartTime: start, EndTime: end,
		Title: "Existing", Organizer: "bob", CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
}

func input(start, end string) ReservationInput {
	return ReservationInput{
		RoomID: "room-1", Date: "2025-03-10", StartTime: start, EndTime: end,
		Title: "Design sync", Organizer: "alice",
	}
}

func newTestService(repo *reservationRepoStub, locker lock.Locker) *ReservationService {
	return NewReservationService(repo, defaultCatalog(), locker, func() string { return "generated-1" }, func() time.Time { return fixedNow }, nil)
}

func TestReservationService_Create(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
	svc := newTestService(repo, nil)

	created, err := svc.Create(context.Background(), CreateReservationParams{
		Input:  input("9:00", "10:00"),
		Origin: "10.0.0.7",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "generated-1" {
		t.Fatalf("expected generated id, got %q", created.ID)
	}
	if created.StartTime != "09:00" || created.EndTime != "10:00" {
		t.Fatalf("expected normalized times, got %s-%s", created.StartTime, created.EndTime)
	}
	if !created.CreatedAt.Equal(fixedNow) || !created.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("expected timestamps from clock, got %v / %v", created.CreatedAt, created.UpdatedAt)
	}
	if created.OriginIdentifier == nil || *created.OriginIdentifier != "10.0.0.7" {
		t.Fatalf("expected origin to be recorded, got %v", created.OriginIdentifier)
	}
	if _, err := repo.GetReservation(context.Background(), "generated-1"); err != nil {
		t.Fatalf("expected reservation to be stored: %v", err)
	}
}

func TestReservationService_Create_RejectsOverlap(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(
		stored("r-1", "room-1", "10:00", "11:00"),
		stored("other-room", "room-2", "10:30", "11:30"),
	)
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateReservationParams{Input: input("10:30", "11:30")})
	if !errors.Is(err, scheduler.ErrSchedulingConflict) {
		t.Fatalf("expected ErrSchedulingConflict, got %v", err)
	}
	var cErr *scheduler.ConflictError
	if !errors.As(err, &cErr) || !reflect.DeepEqual(cErr.IDs(), []string{"r-1"}) {
		t.Fatalf("expected conflict with r-1 only, got %v", err)
	}
	if len(repo.records) != 2 {
		t.Fatalf("expected no write on conflict, got %d records", len(repo.records))
	}
}

func TestReservationService_Create_AdmitsTouchingIntervals(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateReservationParams{Input: input("11:00", "12:00")}); err != nil {
		t.Fatalf("expected touching interval after to be admitted, got %v", err)
	}
}

func TestReservationService_Create_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*ReservationInput)
		wantField string
	}{
		{name: "blank title", mutate: func(in *ReservationInput) { in.Title = "   " }, wantField: "title"},
		{name: "blank organizer", mutate: func(in *ReservationInput) { in.Organizer = "" }, wantField: "organizer"},
		{name: "missing room", mutate: func(in *ReservationInput) { in.RoomID = "" }, wantField: "room_id"},
		{name: "unknown room", mutate: func(in *ReservationInput) { in.RoomID = "room-9" }, wantField: "room_id"},
		{name: "malformed date", mutate: func(in *ReservationInput) { in.Date = "2025-3-10" }, wantField: "date"},
		{name: "impossible date", mutate: func(in *ReservationInput) { in.Date = "2025-02-30" }, wantField: "date"},
		{name: "zero length", mutate: func(in *ReservationInput) { in.EndTime = in.StartTime }, wantField: "time"},
		{name: "reversed", mutate: func(in *ReservationInput) { in.StartTime, in.EndTime = "12:00", "11:00" }, wantField: "time"},
		{name: "bad start", mutate: func(in *ReservationInput) { in.StartTime = "9am" }, wantField: "start_time"},
		{name: "bad end", mutate: func(in *ReservationInput) { in.EndTime = "24:00" }, wantField: "end_time"},
		{name: "missing start", mutate: func(in *ReservationInput) { in.StartTime = "" }, wantField: "start_time"},
		{name: "id with slash", mutate: func(in *ReservationInput) { in.ID = "team/standup" }, wantField: "id"},
		{name: "id shadows check route", mutate: func(in *ReservationInput) { in.ID = " check " }, wantField: "id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newReservationRepoStub()
			svc := newTestService(repo, nil)

			in := input("10:00", "11:00")
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), CreateReservationParams{Input: in})

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.wantField]; !ok {
				t.Fatalf("expected %s validation error, got %v", tc.wantField, vErr.FieldErrors)
			}
			if errors.Is(err, scheduler.ErrSchedulingConflict) {
				t.Fatalf("validation failure must not look like a conflict")
			}
			if len(repo.records) != 0 {
				t.Fatalf("expected nothing stored")
			}
		})
	}
}

func TestReservationService_Create_CallerSuppliedID(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("taken", "room-2", "08:00", "09:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	in := input("10:00", "11:00")
	in.ID = "client-42"
	created, err := svc.Create(ctx, CreateReservationParams{Input: in})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "client-42" {
		t.Fatalf("expected caller id to be kept, got %q", created.ID)
	}

	dup := input("14:00", "15:00")
	dup.ID = "taken"
	if _, err := svc.Create(ctx, CreateReservationParams{Input: dup}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestReservationService_Create_SerializesPerRoomAndDate(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub()
	var seq int
	var seqMu sync.Mutex
	svc := NewReservationService(repo, defaultCatalog(), lock.NewKeyedMutex(), func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return "id-" + string(rune('a'+seq))
	}, nil, nil)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateReservationParams{Input: input("10:00", "11:00")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, scheduler.ErrSchedulingConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Fatalf("expected exactly one admission, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestReservationService_Update(t *testing.T) {
	t.Parallel()

	t.Run("does not conflict with itself", func(t *testing.T) {
		repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
		svc := newTestService(repo, nil)

		updated, err := svc.Update(context.Background(), UpdateReservationParams{
			ReservationID: "r-1",
			Input:         input("10:30", "11:30"),
		})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated.ID != "r-1" || updated.StartTime != "10:30" {
			t.Fatalf("unexpected update result %+v", updated)
		}
		if !updated.CreatedAt.Equal(fixedNow) {
			t.Fatalf("expected CreatedAt to be preserved")
		}
	})

	t.Run("rejects overlap with another reservation", func(t *testing.T) {
		repo := newReservationRepoStub(
			stored("r-1", "room-1", "10:00", "11:00"),
			stored("r-2", "room-1", "11:00", "12:00"),
		)
		svc := newTestService(repo, nil)

		_, err := svc.Update(context.Background(), UpdateReservationParams{
			ReservationID: "r-1",
			Input:         input("10:30", "11:30"),
		})
		var cErr *scheduler.ConflictError
		if !errors.As(err, &cErr) || !reflect.DeepEqual(cErr.IDs(), []string{"r-2"}) {
			t.Fatalf("expected conflict with r-2, got %v", err)
		}
		if got := repo.records["r-1"].StartTime; got != "10:00" {
			t.Fatalf("expected r-1 to be unchanged, got start %s", got)
		}
	})

	t.Run("missing reservation", func(t *testing.T) {
		svc := newTestService(newReservationRepoStub(), nil)
		_, err := svc.Update(context.Background(), UpdateReservationParams{ReservationID: "nope", Input: input("10:00", "11:00")})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("moving rooms locks both keys in order", func(t *testing.T) {
		repo := newReservationRepoStub(stored("r-1", "room-2", "10:00", "11:00"))
		locker := &recordingLocker{Locker: lock.NewKeyedMutex()}
		svc := newTestService(repo, locker)

		if _, err := svc.Update(context.Background(), UpdateReservationParams{ReservationID: "r-1", Input: input("10:00", "11:00")}); err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		want := []string{lock.Key("room-1", "2025-03-10"), lock.Key("room-2", "2025-03-10")}
		if !reflect.DeepEqual(locker.keys, want) {
			t.Fatalf("expected locks %v, got %v", want, locker.keys)
		}
		if repo.records["r-1"].RoomID != "room-1" {
			t.Fatalf("expected reservation to move to room-1")
		}
	})
}

func TestReservationService_Delete(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if err := svc.Delete(ctx, "r-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	// The freed interval is admissible again.
	if _, err := svc.Create(ctx, CreateReservationParams{Input: input("10:00", "11:00")}); err != nil {
		t.Fatalf("expected freed interval to be admitted, got %v", err)
	}
}

func TestReservationService_ListSorted(t *testing.T) {
	t.Parallel()

	later := stored("b", "room-1", "13:00", "14:00")
	nextDay := stored("c", "room-1", "08:00", "09:00")
	nextDay.Date = "2025-03-11"
	repo := newReservationRepoStub(nextDay, later, stored("a", "room-1", "09:00", "10:00"), stored("d", "room-2", "09:00", "10:00"))
	svc := newTestService(repo, nil)

	all, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "d", "b", "c"}) {
		t.Fatalf("unexpected order %v", ids)
	}

	scoped, err := svc.ListByRoomAndDate(context.Background(), "room-1", "2025-03-10")
	if err != nil {
		t.Fatalf("ListByRoomAndDate returned error: %v", err)
	}
	if len(scoped) != 2 || scoped[0].ID != "a" || scoped[1].ID != "b" {
		t.Fatalf("unexpected scoped list %+v", scoped)
	}
}

func TestReservationService_Admit(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if res := svc.Admit(ctx, CreateReservationParams{Input: input("11:00", "11:30")}); res.Status != AdmissionSuccess || res.Reservation.ID == "" {
		t.Fatalf("expected success, got %+v", res)
	}

	res := svc.Admit(ctx, CreateReservationParams{Input: input("10:15", "10:45")})
	if res.Status != AdmissionConflict || len(res.Conflicts) != 1 || res.Conflicts[0].ReservationID != "r-1" {
		t.Fatalf("expected conflict with r-1, got %+v", res)
	}

	if res := svc.Admit(ctx, CreateReservationParams{Input: input("11:00", "10:00")}); res.Status != AdmissionValidationError {
		t.Fatalf("expected validation_error, got %+v", res)
	}

	repo.listErr = errors.New("disk on fire")
	if res := svc.Admit(ctx, CreateReservationParams{Input: input("15:00", "16:00")}); res.Status != AdmissionStoreError {
		t.Fatalf("expected store_error, got %+v", res)
	}
}

func TestClassifyAdmission(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want AdmissionStatus
	}{
		{err: nil, want: AdmissionSuccess},
		{err: &scheduler.ConflictError{}, want: AdmissionConflict},
		{err: ErrAlreadyExists, want: AdmissionConflict},
		{err: &ValidationError{FieldErrors: map[string]string{"title": "required"}}, want: AdmissionValidationError},
		{err: errors.New("io"), want: AdmissionStoreError},
	}
	for _, tc := range tests {
		if got := ClassifyAdmission(tc.err); got != tc.want {
			t.Fatalf("ClassifyAdmission(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestReservationService_CheckAvailability(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "10:00", "11:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	conflicts, err := svc.CheckAvailability(ctx, input("10:30", "11:30"))
	if err != nil {
		t.Fatalf("CheckAvailability returned error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ReservationID != "r-1" {
		t.Fatalf("expected conflict with r-1, got %+v", conflicts)
	}

	editing := input("10:30", "11:30")
	editing.ID = "r-1"
	conflicts, err = svc.CheckAvailability(ctx, editing)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("expected the edited reservation to be excluded, got %+v %v", conflicts, err)
	}

	// Title and organizer are not needed for a pre-check.
	bare := ReservationInput{RoomID: "room-1", Date: "2025-03-10", StartTime: "12:00", EndTime: "13:00"}
	if conflicts, err := svc.CheckAvailability(ctx, bare); err != nil || len(conflicts) != 0 {
		t.Fatalf("expected free interval, got %+v %v", conflicts, err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected pre-check to write nothing")
	}
}

func TestReservationService_Availability(t *testing.T) {
	t.Parallel()

	repo := newReservationRepoStub(stored("r-1", "room-1", "09:00", "10:00"))
	svc := newTestService(repo, nil)
	ctx := context.Background()

	avail, err := svc.Availability(ctx, "room-1", "2025-03-10", scheduler.SlotConfig{})
	if err != nil {
		t.Fatalf("Availability returned error: %v", err)
	}
	if len(avail.Slots) != 20 {
		t.Fatalf("expected default grid of 20 slots, got %d", len(avail.Slots))
	}
	for _, s := range avail.Slots[:3] {
		if s.Available || s.ReservationID != "r-1" {
			t.Fatalf("expected %s to be held by r-1, got %+v", s.Time, s)
		}
	}
	if !avail.Slots[3].Available {
		t.Fatalf("expected 10:30 to be free")
	}
	if avail.StartChoices[0] != "09:00" || len(avail.StartChoices) != 20 {
		t.Fatalf("unexpected start choices %v", avail.StartChoices)
	}

	ends, err := svc.EndChoices(ctx, "room-1", "2025-03-10", scheduler.SlotConfig{WindowStart: "09:00", WindowEnd: "11:00", StepMinutes: 30}, "10:00")
	if err != nil {
		t.Fatalf("EndChoices returned error: %v", err)
	}
	if !reflect.DeepEqual(ends, []string{"10:30"}) {
		t.Fatalf("unexpected end choices %v", ends)
	}

	if _, err := svc.Availability(ctx, "room-9", "2025-03-10", scheduler.SlotConfig{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown room, got %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.Availability(ctx, "room-1", "tomorrow", scheduler.SlotConfig{}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for bad date, got %v", err)
	}
	if _, err := svc.Availability(ctx, "room-1", "2025-03-10", scheduler.SlotConfig{WindowStart: "10:00", WindowEnd: "09:00", StepMinutes: 30}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for bad window, got %v", err)
	}
	if _, err := svc.EndChoices(ctx, "room-1", "2025-03-10", scheduler.SlotConfig{}, "soon"); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for bad start, got %v", err)
	}
}
