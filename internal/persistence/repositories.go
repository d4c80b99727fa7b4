package persistence

import (
	"context"
	"sort"
)

// ReservationRepository stores reservations keyed by identifier.
//
// Implementations are safe for concurrent use. They do not check for
// scheduling conflicts; admission is serialized by the caller.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	ListReservationsByRoomAndDate(ctx context.Context, roomID, date string) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// SortReservations orders reservations by date, start time and identifier.
func SortReservations(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return lessClock(a.StartTime, b.StartTime)
		}
		return a.ID < b.ID
	})
}

// lessClock compares HH:MM values, tolerating single digit hours.
func lessClock(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
