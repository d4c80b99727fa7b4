package scheduler

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Default slot grid bounds.
const (
	DefaultWindowStart = "09:00"
	DefaultWindowEnd   = "19:00"
	DefaultStepMinutes = 30
)

// ErrInvalidSlotConfig is returned when a slot grid cannot be built from a configuration.
var ErrInvalidSlotConfig = errors.New("scheduler: invalid slot configuration")

// SlotConfig describes the working window and grid spacing for availability slots.
type SlotConfig struct {
	WindowStart string
	WindowEnd   string
	StepMinutes int
}

// DefaultSlotConfig returns the 09:00-19:00 grid in 30 minute steps.
func DefaultSlotConfig() SlotConfig {
	return SlotConfig{
		WindowStart: DefaultWindowStart,
		WindowEnd:   DefaultWindowEnd,
		StepMinutes: DefaultStepMinutes,
	}
}

// Validate checks that the window parses, is non-empty, and the step is positive.
func (c SlotConfig) Validate() error {
	_, _, err := c.bounds()
	return err
}

func (c SlotConfig) bounds() (int, int, error) {
	start, err := ToMinutes(c.WindowStart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: window start: %w", ErrInvalidSlotConfig, err)
	}
	end, err := ToMinutes(c.WindowEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: window end: %w", ErrInvalidSlotConfig, err)
	}
	if c.StepMinutes <= 0 {
		return 0, 0, fmt.Errorf("%w: step must be positive, got %d", ErrInvalidSlotConfig, c.StepMinutes)
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: window %s-%s is empty", ErrInvalidSlotConfig, c.WindowStart, c.WindowEnd)
	}
	return start, end, nil
}

// TimeSlot is one grid point of the availability display.
type TimeSlot struct {
	Time          string
	Available     bool
	ReservationID string
}

type occupant struct {
	id       string
	interval Interval
}

// occupants parses existing reservations ordered by start so that the
// earliest starting reservation claims a shared boundary point.
func occupants(existing []Reservation) ([]occupant, error) {
	out := make([]occupant, 0, len(existing))
	for _, r := range existing {
		start, err := ToMinutes(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		end, err := ToMinutes(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		out = append(out, occupant{id: r.ID, interval: Interval{Start: start, End: end}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].interval.Start == out[j].interval.Start {
			return out[i].id < out[j].id
		}
		return out[i].interval.Start < out[j].interval.Start
	})
	return out, nil
}

// Slots returns the availability grid for the supplied reservations as a lazy sequence.
//
// existing must already be narrowed to a single room and date. A grid point is
// occupied when a reservation contains it under closed containment
// (start <= t <= end). The returned sequence can be ranged over any number of
// times and always yields the same slots.
func Slots(existing []Reservation, cfg SlotConfig) (iter.Seq[TimeSlot], error) {
	start, end, err := cfg.bounds()
	if err != nil {
		return nil, err
	}
	occ, err := occupants(existing)
	if err != nil {
		return nil, err
	}
	step := cfg.StepMinutes

	return func(yield func(TimeSlot) bool) {
		for t := range gridPoints(start, end, step) {
			slot := TimeSlot{Time: FormatMinutes(t), Available: true}
			for _, o := range occ {
				if o.interval.Contains(t) {
					slot.Available = false
					slot.ReservationID = o.id
					break
				}
			}
			if !yield(slot) {
				return
			}
		}
	}, nil
}

// gridPoints yields start, start+step, ... while below end. A step larger
// than the remaining window ends the walk instead of overflowing t.
func gridPoints(start, end, step int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for t := start; t < end; t += step {
			if !yield(t) || step >= end-t {
				return
			}
		}
	}
}

// GenerateSlots collects Slots into an ordered slice.
func GenerateSlots(existing []Reservation, cfg SlotConfig) ([]TimeSlot, error) {
	seq, err := Slots(existing, cfg)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// StartChoices lists the times a new booking may start at: every grid point
// plus every existing end time, so a booking can begin when another ends.
func StartChoices(existing []Reservation, cfg SlotConfig) ([]string, error) {
	start, end, err := cfg.bounds()
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	points := make([]int, 0)
	for t := range gridPoints(start, end, cfg.StepMinutes) {
		seen[t] = struct{}{}
		points = append(points, t)
	}
	for _, r := range existing {
		m, err := ToMinutes(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		points = append(points, m)
	}

	sort.Ints(points)
	choices := make([]string, len(points))
	for i, p := range points {
		choices[i] = FormatMinutes(p)
	}
	return choices, nil
}

// EndChoices lists the start choices strictly after the selected start time.
func EndChoices(existing []Reservation, cfg SlotConfig, selectedStart string) ([]string, error) {
	from, err := ToMinutes(selectedStart)
	if err != nil {
		return nil, err
	}
	starts, err := StartChoices(existing, cfg)
	if err != nil {
		return nil, err
	}

	choices := make([]string, 0, len(starts))
	for _, s := range starts {
		// StartChoices only emits formatted values, so parsing cannot fail.
		m, _ := ToMinutes(s)
		if m > from {
			choices = append(choices, s)
		}
	}
	return choices, nil
}
