package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
)

// RoomService serves the read-only room catalog loaded from configuration.
type RoomService struct {
	rooms  map[string]Room
	order  []Room
	logger *slog.Logger
}

// NewRoomService copies rooms into a catalog sorted by name. Later entries
// with a repeated ID are ignored.
func NewRoomService(rooms []Room, logger *slog.Logger) *RoomService {
	byID := make(map[string]Room, len(rooms))
	order := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if _, dup := byID[room.ID]; dup || room.ID == "" {
			continue
		}
		room.Amenities = slices.Clone(room.Amenities)
		byID[room.ID] = room
		order = append(order, room)
	}

	sort.Slice(order, func(i, j int) bool {
		if strings.EqualFold(order[i].Name, order[j].Name) {
			return order[i].ID < order[j].ID
		}
		return strings.ToLower(order[i].Name) < strings.ToLower(order[j].Name)
	})

	return &RoomService{rooms: byID, order: order, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// ListRooms returns the catalog ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}

	rooms := make([]Room, len(s.order))
	for i, room := range s.order {
		room.Amenities = slices.Clone(room.Amenities)
		rooms[i] = room
	}

	s.loggerWith(ctx, "ListRooms").With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	return rooms, nil
}

// GetRoom returns one room by ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	room, ok := s.rooms[id]
	if !ok {
		s.loggerWith(ctx, "GetRoom", "room_id", id).DebugContext(ctx, "room not found")
		return Room{}, ErrNotFound
	}
	room.Amenities = slices.Clone(room.Amenities)
	return room, nil
}

// RoomExists reports whether id names a catalog room.
func (s *RoomService) RoomExists(ctx context.Context, id string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("RoomService is nil")
	}
	_, ok := s.rooms[id]
	return ok, nil
}
