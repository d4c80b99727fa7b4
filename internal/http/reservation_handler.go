package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/scheduler"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	Update(ctx context.Context, params application.UpdateReservationParams) (application.Reservation, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (application.Reservation, error)
	List(ctx context.Context) ([]application.Reservation, error)
	ListByRoomAndDate(ctx context.Context, roomID, date string) ([]application.Reservation, error)
	CheckAvailability(ctx context.Context, input application.ReservationInput) ([]scheduler.Conflict, error)
}

// ReservationHandler serves the /bookings endpoints.
type ReservationHandler struct {
	service   reservationService
	responder responder
	logger    *slog.Logger
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *ReservationHandler) ListByRoomAndDate(w http.ResponseWriter, r *http.Request, roomID, date string) {
	reservations, err := h.service.ListByRoomAndDate(r.Context(), roomID, date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	reservation, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Input:  req.toInput(),
		Origin: originOf(r),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Location", "/bookings/"+reservation.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "reservation_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reservation, err := h.service.Update(r.Context(), application.UpdateReservationParams{
		ReservationID: id,
		Input:         req.toInput(),
		Origin:        originOf(r),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Check answers whether a candidate would be admitted right now.
func (h *ReservationHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	conflicts, err := h.service.CheckAvailability(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ReservationID)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkResponse{
		Available: len(conflicts) == 0,
		Conflicts: ids,
		Details:   toConflictDTOs(conflicts),
	})
}

func originOf(r *http.Request) string {
	if origin := OriginFromContext(r.Context()); origin != "" {
		return origin
	}
	return ClientOrigin(r)
}

type reservationRequest struct {
	ID               string  `json:"id"`
	RoomID           string  `json:"room_id"`
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Title            string  `json:"title"`
	Organizer        string  `json:"organizer"`
	ParticipantNames *string `json:"participant_names"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		ID:               r.ID,
		RoomID:           r.RoomID,
		Date:             r.Date,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Title:            r.Title,
		Organizer:        r.Organizer,
		ParticipantNames: r.ParticipantNames,
	}
}

type reservationDTO struct {
	ID               string    `json:"id"`
	RoomID           string    `json:"room_id"`
	Date             string    `json:"date"`
	StartTime        string    `json:"start_time"`
	EndTime          string    `json:"end_time"`
	Title            string    `json:"title"`
	Organizer        string    `json:"organizer"`
	ParticipantNames *string   `json:"participant_names,omitempty"`
	OriginIdentifier *string   `json:"origin_identifier,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toReservationDTO(r application.Reservation) reservationDTO {
	return reservationDTO{
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

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationDTO(r))
	}
	return out
}

type checkResponse struct {
	Available bool          `json:"available"`
	Conflicts []string      `json:"conflicts"`
	Details   []conflictDTO `json:"details"`
}
