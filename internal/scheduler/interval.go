// Package scheduler holds the booking decision rules: the wall-clock interval
// model, the admission conflict check and the availability slot grid.
//
// Two containment rules coexist on purpose. Admission uses open intervals, so
// a reservation ending at 10:00 and another starting at 10:00 only touch and do
// not conflict. The slot grid uses closed containment, so the 10:00 grid point
// is shown as occupied by a reservation ending at 10:00. Changing either rule
// changes which boundary slots look bookable, so they are tested separately.
//
// Every function here is pure. Callers own the reservation snapshot and any
// serialization between checking and persisting.
package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFormat is returned when a value is not a valid HH:MM wall-clock time.
	ErrInvalidTimeFormat = errors.New("scheduler: invalid time format")
	// ErrInvalidInterval is returned when an interval does not end after it starts.
	ErrInvalidInterval = errors.New("scheduler: end must be after start")
)

// ToMinutes converts an HH:MM value to minutes since midnight.
func ToMinutes(value string) (int, error) {
	hours, minutes, ok := splitClock(value)
	if !ok || hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, value)
	}
	return hours*60 + minutes, nil
}

// splitClock accepts one or two hour digits and exactly two minute digits.
func splitClock(value string) (int, int, bool) {
	colon := -1
	for i := 0; i < len(value); i++ {
		if value[i] == ':' {
			if colon >= 0 {
				return 0, 0, false
			}
			colon = i
			continue
		}
		if value[i] < '0' || value[i] > '9' {
			return 0, 0, false
		}
	}
	if colon < 1 || colon > 2 || len(value)-colon-1 != 2 {
		return 0, 0, false
	}

	hours := 0
	for _, c := range value[:colon] {
		hours = hours*10 + int(c-'0')
	}
	minutes := int(value[colon+1]-'0')*10 + int(value[colon+2]-'0')
	return hours, minutes, true
}

// FormatMinutes renders minutes since midnight as a zero padded HH:MM value.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share more than a boundary.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// Interval is a same-day span in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// ParseInterval parses both ends of an interval and enforces start < end.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return Interval{Start: s, End: e}, nil
}

// Overlaps reports whether the two intervals conflict under the touch-allowed rule.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Contains reports whether minute falls within the closed interval [Start, End].
func (i Interval) Contains(minute int) bool {
	return i.Start <= minute && minute <= i.End
}
