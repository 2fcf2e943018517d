package model

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ShiftClock describes where shifts start on a calendar day
type ShiftClock struct {
	Location   *time.Location
	DayStart   Clock
	NightStart Clock
}

// DefaultShiftClock starts Day shifts at 04:45 and Night shifts at 16:45 local time
func DefaultShiftClock(loc *time.Location) ShiftClock {
	if loc == nil {
		loc = time.UTC
	}
	return ShiftClock{
		Location:   loc,
		DayStart:   Clock{Hour: 4, Minute: 45},
		NightStart: Clock{Hour: 16, Minute: 45},
	}
}

// ShiftTimes returns the start and end of a shift of the given kind on the calendar
// date of `date` (interpreted in the clock's location).
func (sc ShiftClock) ShiftTimes(date time.Time, kind ShiftKind, length time.Duration) (time.Time, time.Time) {
	loc := sc.Location
	if loc == nil {
		loc = time.UTC
	}
	local := date.In(loc)

	c := sc.DayStart
	if kind == ShiftNight {
		c = sc.NightStart
	}

	start := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	return start, start.Add(length)
}

// StartOfDay truncates t to local midnight in the clock's location
func (sc ShiftClock) StartOfDay(t time.Time) time.Time {
	loc := sc.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
