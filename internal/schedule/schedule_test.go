package schedule

import (
	"testing"
	"time"
)

// 2026-03-02 is a Monday, 2026-03-01 a Sunday.
var (
	monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	sunday = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
)

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func TestWeeklyHoursFor(t *testing.T) {
	hours := DefaultWeeklyHours()

	regular := hours.For(monday)
	if !regular.Open.Equal(at(monday, 8, 30)) || !regular.Close.Equal(at(monday, 16, 0)) {
		t.Errorf("unexpected regular hours %v-%v", regular.Open, regular.Close)
	}

	short := hours.For(sunday)
	if !short.Open.Equal(at(sunday, 9, 0)) || !short.Close.Equal(at(sunday, 12, 0)) {
		t.Errorf("unexpected short-day hours %v-%v", short.Open, short.Close)
	}
}

func TestAvailableEmptyDay(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	slots := Available(hours, 30*time.Minute, nil)

	// floor((16:00 - 08:30) / 30m) = 15
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if s.End.Sub(s.Start) != 30*time.Minute {
			t.Errorf("slot %d has length %s", i, s.End.Sub(s.Start))
		}
		if i > 0 && !slots[i-1].End.Equal(s.Start) {
			t.Errorf("slot %d is not contiguous with its predecessor", i)
		}
	}
	if last := slots[len(slots)-1]; last.End.After(hours.Close) {
		t.Errorf("last slot %v ends after closing %v", last.End, hours.Close)
	}

	rendered := Render(slots)
	if rendered[0].Start != "08:30 AM" || rendered[0].End != "09:00 AM" {
		t.Errorf("unexpected first slot %+v", rendered[0])
	}
	if got := rendered[len(rendered)-1]; got.Start != "03:30 PM" || got.End != "04:00 PM" {
		t.Errorf("unexpected last slot %+v", got)
	}
}

func TestAvailableSuppressesOverlaps(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	booked := []Interval{{Start: at(monday, 9, 0), End: at(monday, 10, 0)}}

	rendered := Render(Available(hours, 30*time.Minute, booked))

	if rendered[0].Start != "08:30 AM" || rendered[0].End != "09:00 AM" {
		t.Errorf("back-to-back slot before booking should be emitted, got %+v", rendered[0])
	}
	if rendered[1].Start != "10:00 AM" || rendered[1].End != "10:30 AM" {
		t.Errorf("expected resume at booking end, got %+v", rendered[1])
	}
	for _, s := range rendered {
		if s.Start == "09:00 AM" || s.Start == "09:30 AM" {
			t.Errorf("slot inside booking emitted: %+v", s)
		}
	}
	if len(rendered) != 13 {
		t.Errorf("expected 13 slots, got %d", len(rendered))
	}
}

func TestAvailableNoSlotOverlapsBookings(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	booked := []Interval{
		{Start: at(monday, 9, 15), End: at(monday, 9, 45)},
		{Start: at(monday, 13, 0), End: at(monday, 14, 10)},
	}

	slots := Available(hours, 45*time.Minute, booked)
	if len(slots) == 0 {
		t.Fatal("expected some slots")
	}
	for _, s := range slots {
		for _, b := range booked {
			if s.Start.Before(b.End) && s.End.After(b.Start) {
				t.Errorf("slot %v-%v overlaps booking %v-%v", s.Start, s.End, b.Start, b.End)
			}
		}
		if s.Start.Before(hours.Open) || s.End.After(hours.Close) {
			t.Errorf("slot %v-%v outside operating hours", s.Start, s.End)
		}
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].Start) {
			t.Errorf("slots out of order at %d", i)
		}
	}
}

func TestAvailableFullyBookedDay(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	booked := []Interval{{Start: hours.Open, End: hours.Close}}

	if slots := Available(hours, 30*time.Minute, booked); len(slots) != 0 {
		t.Errorf("expected no slots on a fully booked day, got %d", len(slots))
	}
}

func TestAvailableShortDayBoundaryInclusive(t *testing.T) {
	hours := DefaultWeeklyHours().For(sunday)
	rendered := Render(Available(hours, 45*time.Minute, nil))

	want := []RenderedSlot{
		{Start: "09:00 AM", End: "09:45 AM"},
		{Start: "09:45 AM", End: "10:30 AM"},
		{Start: "10:30 AM", End: "11:15 AM"},
		{Start: "11:15 AM", End: "12:00 PM"},
	}
	if len(rendered) != len(want) {
		t.Fatalf("expected %d slots, got %d: %+v", len(want), len(rendered), rendered)
	}
	for i := range want {
		if rendered[i] != want[i] {
			t.Errorf("slot %d: expected %+v, got %+v", i, want[i], rendered[i])
		}
	}
}

func TestAvailableJumpLandsOffGrid(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	// A booking ending at 09:10 pushes the cursor off the half-hour grid.
	booked := []Interval{{Start: at(monday, 8, 40), End: at(monday, 9, 10)}}

	slots := Available(hours, 30*time.Minute, booked)
	if !slots[0].Start.Equal(at(monday, 9, 10)) {
		t.Errorf("expected first slot at 09:10, got %v", slots[0].Start)
	}
}

func TestAvailableUnsortedInput(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	booked := []Interval{
		{Start: at(monday, 13, 0), End: at(monday, 13, 30)},
		{Start: at(monday, 9, 0), End: at(monday, 9, 30)},
	}

	slots := Available(hours, 30*time.Minute, booked)
	for _, s := range slots {
		for _, b := range booked {
			if s.Start.Before(b.End) && s.End.After(b.Start) {
				t.Errorf("slot %v overlaps booking %v despite unsorted input", s, b)
			}
		}
	}
	if len(slots) != 13 {
		t.Errorf("expected 13 slots, got %d", len(slots))
	}
}

func TestAvailableZeroDuration(t *testing.T) {
	hours := DefaultWeeklyHours().For(monday)
	if slots := Available(hours, 0, nil); slots != nil {
		t.Errorf("expected nil for non-positive duration, got %v", slots)
	}
}

func TestParseClockTime(t *testing.T) {
	ct, err := ParseClockTime("08:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct.Hour != 8 || ct.Minute != 30 {
		t.Errorf("unexpected clock time %+v", ct)
	}

	if _, err := ParseClockTime("25:99"); err == nil {
		t.Error("expected error for invalid clock time")
	}
}
