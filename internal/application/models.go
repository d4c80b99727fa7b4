package application

import (
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// Reservation is a booking of one room on one date.
type Reservation struct {
	ID               string
	RoomID           string
	Date             string
	StartTime        string
	EndTime          string
	Title            string
	Organizer        string
	ParticipantNames *string
	OriginIdentifier *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReservationInput captures caller provided reservation fields.
//
// ID is optional on create. A non-empty ID is used as the identifier when no
// reservation holds it yet. On availability checks it names the reservation
// being edited so that it does not conflict with itself.
type ReservationInput struct {
	ID               string
	RoomID           string
	Date             string
	StartTime        string
	EndTime          string
	Title            string
	Organizer        string
	ParticipantNames *string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Input  ReservationInput
	Origin string
}

// UpdateReservationParams wraps the data required to replace a reservation.
type UpdateReservationParams struct {
	ReservationID string
	Input         ReservationInput
	Origin        string
}

// Room is a bookable room from the catalog.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Amenities []string
}

// AdmissionStatus classifies the outcome of an admission attempt.
type AdmissionStatus string

const (
	AdmissionSuccess         AdmissionStatus = "success"
	AdmissionConflict        AdmissionStatus = "conflict"
	AdmissionValidationError AdmissionStatus = "validation_error"
	AdmissionStoreError      AdmissionStatus = "store_error"
)

// AdmissionResult reports the outcome of Admit.
type AdmissionResult struct {
	Status      AdmissionStatus
	Reservation Reservation
	Conflicts   []scheduler.Conflict
	Err         error
}

// Availability is the slot grid of one room on one date.
type Availability struct {
	RoomID       string
	Date         string
	Config       scheduler.SlotConfig
	Slots        []scheduler.TimeSlot
	StartChoices []string
}
