// Package localtime funnels all local calendar bucketing (day boundaries,
// hour ceilings, half-hour alignment) through one place so the scheduling
// core and the caches never round differently.
package localtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ErrInvalidDate is returned when a date or time string cannot be parsed.
var ErrInvalidDate = errors.New("invalid date or time")

// Clock abstracts time.Now() to allow deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// clockLayouts are accepted for the time-of-day part of split records.
var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3PM", "3 PM"}

// LocalTime interprets dates and wall-clock times in one location.
type LocalTime struct {
	loc *time.Location
}

// New returns a LocalTime for loc. A nil loc means time.Local.
func New(loc *time.Location) LocalTime {
	if loc == nil {
		loc = time.Local
	}
	return LocalTime{loc: loc}
}

func (lt LocalTime) Location() *time.Location {
	if lt.loc == nil {
		return time.Local
	}
	return lt.loc
}

// In converts t into the local zone.
func (lt LocalTime) In(t time.Time) time.Time {
	return t.In(lt.Location())
}

// ParseDate parses "YYYY-MM-DD" as local midnight.
func (lt LocalTime) ParseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), lt.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidDate, date)
	}
	return d, nil
}

// ParseClock parses a time of day and returns hour and minute.
func (lt LocalTime) ParseClock(clock string) (int, int, error) {
	s := strings.ToUpper(strings.TrimSpace(clock))
	// "09:00:00.000000" -> "09:00:00"
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: time %q", ErrInvalidDate, clock)
}

// At combines a local date and a wall-clock time into an instant.
func (lt LocalTime) At(date, clock string) (time.Time, error) {
	d, err := lt.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := lt.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, lt.Location()), nil
}

// AtHour returns hour:00 on the local day of date.
func (lt LocalTime) AtHour(date time.Time, hour int) time.Time {
	d := lt.In(date)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, lt.Location())
}

// Date formats the local calendar date of t.
func (lt LocalTime) Date(t time.Time) string {
	return lt.In(t).Format(DateLayout)
}

// Clock formats the local wall-clock time of t as HH:MM.
func (lt LocalTime) Clock(t time.Time) string {
	return lt.In(t).Format(TimeLayout)
}

func (lt LocalTime) StartOfDay(t time.Time) time.Time {
	d := lt.In(t)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, lt.Location())
}

// EndOfDay returns 23:59:59.999 on the local day of t.
func (lt LocalTime) EndOfDay(t time.Time) time.Time {
	d := lt.In(t)
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), lt.Location())
}

// CeilHour rounds t up to the next full local hour. Exact hours are kept.
func (lt LocalTime) CeilHour(t time.Time) time.Time {
	return lt.CeilStep(t, time.Hour)
}

// CeilStep rounds t up to the next multiple of step counted from local
// midnight. step must divide a day.
func (lt LocalTime) CeilStep(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	day := lt.StartOfDay(t)
	offset := t.Sub(day)
	rem := offset % step
	if rem == 0 {
		return lt.In(t)
	}
	return lt.In(t.Add(step - rem))
}

// AddDays shifts a "YYYY-MM-DD" date by n calendar days.
func (lt LocalTime) AddDays(date string, n int) (string, error) {
	d, err := lt.ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}
