package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

const (
	MinutesPerDay = 24 * 60
	DateLayout    = "2006-01-02"
	clockLayout   = "15:04"
)

// EndOfDay is the only valid clock value that is not a real time of day ("24:00").
const EndOfDay Clock = MinutesPerDay

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock accepts "HH:MM"; "24:00" is allowed as an end-of-day close time.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return EndOfDay, nil
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c Clock) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On places the clock on date (only its year/month/day are used) in loc as a
// wall-clock reading, so 09:00 stays 09:00 on a DST changeover day. EndOfDay
// is the next day's midnight.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	if c >= EndOfDay {
		return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// DateOf strips the time of day, keeping t's calendar date as a UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
