package persistence

import "time"

// Reservation represents a room booking stored in persistence.
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

// Clone returns a deep copy of the reservation.
func (r Reservation) Clone() Reservation {
	out := r
	if r.ParticipantNames != nil {
		v := *r.ParticipantNames
		out.ParticipantNames = &v
	}
	if r.OriginIdentifier != nil {
		v := *r.OriginIdentifier
		out.OriginIdentifier = &v
	}
	return out
}
