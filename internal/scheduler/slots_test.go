package scheduler

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestGenerateSlots_DefaultWindowEmptyDay(t *testing.T) {
	t.Parallel()

	slots, err := GenerateSlots(nil, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected 20 slots, got %d", len(slots))
	}
	if slots[0].Time != "09:00" {
		t.Fatalf("expected first slot 09:00, got %q", slots[0].Time)
	}
	if slots[len(slots)-1].Time != "18:30" {
		t.Fatalf("expected last slot 18:30, got %q", slots[len(slots)-1].Time)
	}
	for _, s := range slots {
		if !s.Available || s.ReservationID != "" {
			t.Fatalf("expected every slot to be free, got %+v", s)
		}
	}
}

func TestGenerateSlots_ClosedContainment(t *testing.T) {
	t.Parallel()

	existing := []Reservation{booking("r-1", "09:00", "10:00")}

	slots, err := GenerateSlots(existing, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byTime := make(map[string]TimeSlot, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}

	for _, occupied := range []string{"09:00", "09:30", "10:00"} {
		s := byTime[occupied]
		if s.Available || s.ReservationID != "r-1" {
			t.Fatalf("expected %s to be occupied by r-1, got %+v", occupied, s)
		}
	}
	if s := byTime["10:30"]; !s.Available {
		t.Fatalf("expected 10:30 to be free, got %+v", s)
	}

	// The admission rule disagrees with the display at 10:00: a booking may
	// start there even though the grid marks it occupied.
	if admit, err := CheckConflict(existing, candidate("10:00", "10:30")); err != nil || !admit {
		t.Fatalf("expected admission at the boundary, got admit=%v err=%v", admit, err)
	}
}

func TestGenerateSlots_SharedBoundaryGoesToEarlierReservation(t *testing.T) {
	t.Parallel()

	existing := []Reservation{
		booking("second", "10:00", "11:00"),
		booking("first", "09:00", "10:00"),
	}

	slots, err := GenerateSlots(existing, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range slots {
		if s.Time == "10:00" && s.ReservationID != "first" {
			t.Fatalf("expected 10:00 to report first, got %+v", s)
		}
		if s.Time == "10:30" && s.ReservationID != "second" {
			t.Fatalf("expected 10:30 to report second, got %+v", s)
		}
	}
}

func TestGenerateSlots_CountAndSpacing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg       SlotConfig
		wantCount int
	}{
		{cfg: SlotConfig{WindowStart: "08:00", WindowEnd: "09:00", StepMinutes: 15}, wantCount: 4},
		{cfg: SlotConfig{WindowStart: "08:00", WindowEnd: "09:10", StepMinutes: 20}, wantCount: 4},
		{cfg: SlotConfig{WindowStart: "00:00", WindowEnd: "23:59", StepMinutes: 60}, wantCount: 24},
		{cfg: SlotConfig{WindowStart: "12:00", WindowEnd: "12:01", StepMinutes: 45}, wantCount: 1},
		{cfg: SlotConfig{WindowStart: "09:00", WindowEnd: "19:00", StepMinutes: math.MaxInt}, wantCount: 1},
		{cfg: SlotConfig{WindowStart: "00:00", WindowEnd: "23:59", StepMinutes: math.MaxInt - 1}, wantCount: 1},
	}

	for _, tc := range tests {
		slots, err := GenerateSlots(nil, tc.cfg)
		if err != nil {
			t.Fatalf("unexpected error for %+v: %v", tc.cfg, err)
		}
		if len(slots) != tc.wantCount {
			t.Fatalf("expected %d slots for %+v, got %d", tc.wantCount, tc.cfg, len(slots))
		}
		start, _ := ToMinutes(tc.cfg.WindowStart)
		for i, s := range slots {
			m, err := ToMinutes(s.Time)
			if err != nil {
				t.Fatalf("slot time %q does not parse: %v", s.Time, err)
			}
			if m != start+i*tc.cfg.StepMinutes {
				t.Fatalf("slot %d at %q is not on the grid", i, s.Time)
			}
		}
	}
}

func TestSlots_IsRestartable(t *testing.T) {
	t.Parallel()

	existing := []Reservation{booking("r-1", "13:00", "14:00")}
	seq, err := Slots(existing, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	collect := func() []TimeSlot {
		var out []TimeSlot
		for s := range seq {
			out = append(out, s)
		}
		return out
	}

	first := collect()
	// Mutating the caller's slice must not leak into the sequence.
	existing[0].StartTime = "09:00"
	second := collect()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across iterations")
	}

	again, err := GenerateSlots([]Reservation{booking("r-1", "13:00", "14:00")}, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("expected GenerateSlots to be idempotent")
	}
}

func TestSlots_StopsEarly(t *testing.T) {
	t.Parallel()

	seq, err := Slots(nil, DefaultSlotConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Fatalf("expected to stop after 3 slots, got %d", count)
	}
}

func TestSlotConfig_Validate(t *testing.T) {
	t.Parallel()

	invalid := []SlotConfig{
		{WindowStart: "09:00", WindowEnd: "19:00", StepMinutes: 0},
		{WindowStart: "09:00", WindowEnd: "19:00", StepMinutes: -5},
		{WindowStart: "19:00", WindowEnd: "09:00", StepMinutes: 30},
		{WindowStart: "09:00", WindowEnd: "09:00", StepMinutes: 30},
		{WindowStart: "9h", WindowEnd: "19:00", StepMinutes: 30},
	}
	for _, cfg := range invalid {
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidSlotConfig) {
			t.Fatalf("expected ErrInvalidSlotConfig for %+v, got %v", cfg, err)
		}
	}
	if err := DefaultSlotConfig().Validate(); err != nil {
		t.Fatalf("expected default configuration to be valid, got %v", err)
	}
}

func TestStartChoices_HugeStepStaysOrdered(t *testing.T) {
	t.Parallel()

	cfg := SlotConfig{WindowStart: "09:00", WindowEnd: "19:00", StepMinutes: math.MaxInt}
	starts, err := StartChoices([]Reservation{booking("r-1", "09:00", "10:00")}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"09:00", "10:00"}; !reflect.DeepEqual(starts, want) {
		t.Fatalf("expected %v, got %v", want, starts)
	}

	ends, err := EndChoices(nil, cfg, "09:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ends) != 0 {
		t.Fatalf("expected no end choices, got %v", ends)
	}
}

func TestStartAndEndChoices(t *testing.T) {
	t.Parallel()

	cfg := SlotConfig{WindowStart: "09:00", WindowEnd: "11:00", StepMinutes: 30}
	existing := []Reservation{
		booking("r-1", "09:00", "09:45"),
		booking("r-2", "10:00", "10:30"),
	}

	starts, err := StartChoices(existing, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStarts := []string{"09:00", "09:30", "09:45", "10:00", "10:30"}
	if !reflect.DeepEqual(starts, wantStarts) {
		t.Fatalf("expected start choices %v, got %v", wantStarts, starts)
	}

	ends, err := EndChoices(existing, cfg, "09:45")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantEnds := []string{"10:00", "10:30"}
	if !reflect.DeepEqual(ends, wantEnds) {
		t.Fatalf("expected end choices %v, got %v", wantEnds, ends)
	}

	// Every picker pair that does not straddle a reservation is admissible.
	if admit, err := CheckConflict(existing, candidate("09:45", "10:00")); err != nil || !admit {
		t.Fatalf("expected 09:45-10:00 to be admissible, got admit=%v err=%v", admit, err)
	}

	if _, err := EndChoices(existing, cfg, "late"); !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
}
