package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSchedulingConflict is matched by ConflictError via errors.Is.
var ErrSchedulingConflict = errors.New("scheduler: time is already booked")

// Reservation is the slice of a booking the decision rules look at.
type Reservation struct {
	ID        string
	RoomID    string
	Date      string
	StartTime string
	EndTime   string
}

// Conflict identifies an existing reservation that a candidate overlaps.
type Conflict struct {
	ReservationID string
	RoomID        string
	Date          string
	StartTime     string
	EndTime       string
}

// ConflictError reports the reservations a rejected candidate overlaps.
type ConflictError struct {
	Conflicts []Conflict
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return ErrSchedulingConflict.Error()
	}
	return fmt.Sprintf("%s: conflicts with %s", ErrSchedulingConflict.Error(), strings.Join(e.IDs(), ", "))
}

// Is lets errors.Is match ErrSchedulingConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// IDs returns the conflicting reservation identifiers in report order.
func (e *ConflictError) IDs() []string {
	if e == nil {
		return nil
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.ReservationID)
	}
	return ids
}

// DetectConflicts returns every reservation in existing that the candidate overlaps.
//
// The candidate's own times are validated first, so an invalid candidate is
// rejected even against an empty set. Only reservations for the candidate's
// room and date are considered, and a non-empty candidate ID excludes the
// reservation being replaced.
func DetectConflicts(existing []Reservation, candidate Reservation) ([]Conflict, error) {
	want, err := ParseInterval(candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, err
	}

	type hit struct {
		start    int
		conflict Conflict
	}
	var hits []hit
	for _, r := range existing {
		if r.RoomID != candidate.RoomID || r.Date != candidate.Date {
			continue
		}
		if candidate.ID != "" && r.ID == candidate.ID {
			continue
		}
		start, err := ToMinutes(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		end, err := ToMinutes(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		if !Overlaps(want.Start, want.End, start, end) {
			continue
		}
		hits = append(hits, hit{start: start, conflict: Conflict{
			ReservationID: r.ID,
			RoomID:        r.RoomID,
			Date:          r.Date,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
		}})
	}
	if len(hits) == 0 {
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start == hits[j].start {
			return hits[i].conflict.ReservationID < hits[j].conflict.ReservationID
		}
		return hits[i].start < hits[j].start
	})

	conflicts := make([]Conflict, len(hits))
	for i, h := range hits {
		conflicts[i] = h.conflict
	}
	return conflicts, nil
}

// CheckConflict reports whether candidate may be admitted alongside existing.
func CheckConflict(existing []Reservation, candidate Reservation) (bool, error) {
	conflicts, err := DetectConflicts(existing, candidate)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Admit returns nil when candidate may be admitted, a *ConflictError when it
// overlaps existing reservations, or the validation error for its own times.
func Admit(existing []Reservation, candidate Reservation) error {
	conflicts, err := DetectConflicts(existing, candidate)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}
