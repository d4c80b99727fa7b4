package testfixtures

import (
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

var referenceTime = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

// ReferenceTime is the creation instant stamped on generated reservations.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the booking day used by default fixtures.
const ReferenceDate = "2025-03-10"

// Rooms returns a small catalog matching the built in defaults.
func Rooms() []application.Room {
	return []application.Room{
		{ID: "room-1", Name: "2204会议室", Capacity: 10},
		{ID: "room-2", Name: "2208会议室", Capacity: 10},
		{ID: "room-3", Name: "2209会议室", Capacity: 10, Amenities: []string{"projector"}},
	}
}

// ReservationOption adjusts a generated reservation.
type ReservationOption func(*persistence.Reservation)

// NewReservation returns a 10:00-11:00 booking of room-1 on ReferenceDate.
func NewReservation(id string, opts ...ReservationOption) persistence.Reservation {
	r := persistence.Reservation{
		ID:        id,
		RoomID:    "room-1",
		Date:      ReferenceDate,
		StartTime: "10:00",
		EndTime:   "11:00",
		Title:     "Weekly sync",
		Organizer: "alice",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func InRoom(roomID string) ReservationOption {
	return func(r *persistence.Reservation) { r.RoomID = roomID }
}

func OnDate(date string) ReservationOption {
	return func(r *persistence.Reservation) { r.Date = date }
}

// Between sets the booked interval.
func Between(start, end string) ReservationOption {
	return func(r *persistence.Reservation) {
		r.StartTime = start
		r.EndTime = end
	}
}

func WithTitle(title string) ReservationOption {
	return func(r *persistence.Reservation) { r.Title = title }
}

func WithOrganizer(organizer string) ReservationOption {
	return func(r *persistence.Reservation) { r.Organizer = organizer }
}

func WithParticipants(names string) ReservationOption {
	return func(r *persistence.Reservation) { r.ParticipantNames = &names }
}

// Input converts a generated reservation into the matching create input.
func Input(r persistence.Reservation) application.ReservationInput {
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
