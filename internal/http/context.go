package http

import (
	"context"
	"log/slog"

	"github.com/example/room-booking/internal/logging"
)

type contextKey string

const (
	originContextKey        contextKey = "origin"
	reservationIDContextKey contextKey = "reservation_id"
	roomIDContextKey        contextKey = "room_id"
)

// ContextWithLogger attaches the request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithOrigin records the client address resolved for the request.
func ContextWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey, origin)
}

// OriginFromContext returns the client address recorded by RequestLogger.
func OriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(originContextKey).(string)
	return origin
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, id)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

// ContextWithRoomID injects the room identifier resolved from the request path.
func ContextWithRoomID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, roomIDContextKey, id)
}

// RoomIDFromContext extracts a room identifier previously associated with the context.
func RoomIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(roomIDContextKey).(string)
	return id, ok
}
