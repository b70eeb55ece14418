package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Interval is an occupied stretch of time on a single date.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Slot is a bookable window of exactly the requested duration.
type Slot struct {
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

// RenderedSlot is the wire form of a slot, 12-hour clock.
type RenderedSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Hours are the opening and closing instants for one calendar date.
type Hours struct {
	Open  time.Time
	Close time.Time
}

// WeeklyHours derives per-date operating hours from a fixed weekly rule:
// one short day, identical hours on all other days.
type WeeklyHours struct {
	ShortDay     time.Weekday
	ShortOpen    ClockTime
	ShortClose   ClockTime
	RegularOpen  ClockTime
	RegularClose ClockTime
}

// DefaultWeeklyHours matches the clinic's posted schedule: Sundays 09:00-12:00,
// every other day 08:30-16:00.
func DefaultWeeklyHours() WeeklyHours {
	return WeeklyHours{
		ShortDay:     time.Sunday,
		ShortOpen:    ClockTime{9, 0},
		ShortClose:   ClockTime{12, 0},
		RegularOpen:  ClockTime{8, 30},
		RegularClose: ClockTime{16, 0},
	}
}

// For returns the operating hours on the given date.
func (w WeeklyHours) For(date time.Time) Hours {
	open, close := w.RegularOpen, w.RegularClose
	if date.Weekday() == w.ShortDay {
		open, close = w.ShortOpen, w.ShortClose
	}
	return Hours{Open: open.On(date), Close: close.On(date)}
}

// ClockTime is a time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("schedule: parse clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On combines the clock time with a calendar date.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// Available subtracts booked intervals from the day's operating hours and
// returns the remaining windows of exactly the requested duration, in
// non-decreasing start order.
//
// The cursor walks forward from opening. A candidate [cursor, cursor+duration)
// conflicts with a booked interval iff candidate.start < booked.end and
// candidate.end > booked.start; the strict inequalities permit back-to-back
// scheduling. On conflict the cursor jumps to the conflicting interval's end
// rather than to the next grid point, so a slot starting exactly where a
// booking ends is not missed. A candidate must close at or before closing
// time (end <= close, inclusive).
func Available(hours Hours, duration time.Duration, booked []Interval) []Slot {
	if duration <= 0 {
		return nil
	}

	// The store is not trusted for ordering; sort by start, keeping input
	// order as the tie-break.
	sorted := make([]Interval, len(booked))
	copy(sorted, booked)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var slots []Slot
	cursor := hours.Open
	for !cursor.Add(duration).After(hours.Close) {
		end := cursor.Add(duration)
		conflicted := false
		for _, b := range sorted {
			if cursor.Before(b.End) && end.After(b.Start) {
				// Jump to the end of the conflicting interval and
				// re-evaluate; the cursor strictly advances because
				// cursor < b.End.
				cursor = b.End
				conflicted = true
				break
			}
		}
		if conflicted {
			continue
		}
		slots = append(slots, Slot{Start: cursor, End: end})
		cursor = end
	}
	return slots
}

// Render formats slots on the 12-hour clock ("08:30 AM").
func Render(slots []Slot) []RenderedSlot {
	out := make([]RenderedSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, RenderedSlot{
			Start: s.Start.Format("03:04 PM"),
			End:   s.End.Format("03:04 PM"),
		})
	}
	return out
}
