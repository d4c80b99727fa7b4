package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/scheduler"
)

type roomService interface {
	ListRooms(ctx context.Context) ([]application.Room, error)
	GetRoom(ctx context.Context, id string) (application.Room, error)
}

type availabilityService interface {
	Availability(ctx context.Context, roomID, date string, cfg scheduler.SlotConfig) (application.Availability, error)
	EndChoices(ctx context.Context, roomID, date string, cfg scheduler.SlotConfig, start string) ([]string, error)
}

// RoomHandler serves the room catalog and slot grids.
type RoomHandler struct {
	rooms     roomService
	slots     availabilityService
	grid      scheduler.SlotConfig
	responder responder
	logger    *slog.Logger
}

// NewRoomHandler returns a handler rendering grids from grid unless a request overrides it.
func NewRoomHandler(rooms roomService, slots availabilityService, grid scheduler.SlotConfig, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	if grid == (scheduler.SlotConfig{}) {
		grid = scheduler.DefaultSlotConfig()
	}
	return &RoomHandler{rooms: rooms, slots: slots, grid: grid, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}
	room, err := h.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

// Slots renders the availability grid of a room for ?date=.
func (h *RoomHandler) Slots(w http.ResponseWriter, r *http.Request) {
	roomID, ok := RoomIDFromContext(r.Context())
	if !ok || strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRoomID)
		return
	}

	query := r.URL.Query()
	date := strings.TrimSpace(query.Get("date"))
	cfg := h.grid
	if v := strings.TrimSpace(query.Get("start")); v != "" {
		cfg.WindowStart = v
	}
	if v := strings.TrimSpace(query.Get("end")); v != "" {
		cfg.WindowEnd = v
	}
	if v := strings.TrimSpace(query.Get("step")); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil {
			h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
				Message: "invalid input",
				Errors:  map[string]string{"step": "step must be a whole number of minutes"},
			})
			return
		}
		cfg.StepMinutes = step
	}

	logger := handlerLogger(r.Context(), h.logger, "RoomHandler", "Slots", "room_id", roomID, "date", date)

	availability, err := h.slots.Availability(r.Context(), roomID, date, cfg)
	if err != nil {
		logger.DebugContext(r.Context(), "availability lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := slotsResponse{
		RoomID:       availability.RoomID,
		Date:         availability.Date,
		WindowStart:  availability.Config.WindowStart,
		WindowEnd:    availability.Config.WindowEnd,
		StepMinutes:  availability.Config.StepMinutes,
		Slots:        make([]slotDTO, 0, len(availability.Slots)),
		StartChoices: availability.StartChoices,
	}
	for _, s := range availability.Slots {
		resp.Slots = append(resp.Slots, slotDTO{Time: s.Time, Available: s.Available, ReservationID: s.ReservationID})
	}

	if from := strings.TrimSpace(query.Get("from")); from != "" {
		ends, err := h.slots.EndChoices(r.Context(), roomID, date, cfg, from)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		resp.EndChoices = ends
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type roomDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Amenities []string `json:"amenities,omitempty"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{ID: room.ID, Name: room.Name, Capacity: room.Capacity, Amenities: room.Amenities}
}

type slotDTO struct {
	Time          string `json:"time"`
	Available     bool   `json:"available"`
	ReservationID string `json:"reservation_id,omitempty"`
}

type slotsResponse struct {
	RoomID       string    `json:"room_id"`
	Date         string    `json:"date"`
	WindowStart  string    `json:"window_start"`
	WindowEnd    string    `json:"window_end"`
	StepMinutes  int       `json:"step_minutes"`
	Slots        []slotDTO `json:"slots"`
	StartChoices []string  `json:"start_choices"`
	EndChoices   []string  `json:"end_choices,omitempty"`
}
