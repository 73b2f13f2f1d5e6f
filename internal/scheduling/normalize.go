package scheduling

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"calendar-assistant/internal/localtime"
)

// ErrNoStart is returned for records that carry no parseable start.
var ErrNoStart = errors.New("event has no parseable start")

var zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalize converts one raw record into a CanonicalEvent. Times are read
// from the planner's local wall clock regardless of the zone the source
// used.
func (p *Planner) Normalize(r RawEvent) (CanonicalEvent, error) {
	start, allDay, err := p.resolveStart(r)
	if err != nil {
		return CanonicalEvent{}, err
	}

	ev := CanonicalEvent{
		ID:              r.ID,
		Title:           r.Title,
		Date:            p.Local.Date(start),
		Time:            p.Local.Clock(start),
		DurationMinutes: p.resolveDuration(r, start),
		AllDay:          allDay,
	}
	return ev, nil
}

// NormalizeAll normalizes every record, dropping and logging the ones that
// cannot be parsed. It never fails.
func (p *Planner) NormalizeAll(raws []RawEvent) []CanonicalEvent {
	out := make([]CanonicalEvent, 0, len(raws))
	dropped := 0
	for _, r := range raws {
		ev, err := p.Normalize(r)
		if err != nil {
			dropped++
			p.log().Warn("dropping malformed event", "id", r.ID, "title", r.Title, "error", err)
			continue
		}
		out = append(out, ev)
	}
	if dropped > 0 {
		p.log().Info("normalized events", "kept", len(out), "dropped", dropped)
	}
	return out
}

func (p *Planner) resolveStart(r RawEvent) (time.Time, bool, error) {
	switch {
	case !r.StartTime.IsZero():
		return p.Local.In(r.StartTime), false, nil

	case strings.TrimSpace(r.Start) != "":
		t, dateOnly, err := p.parseTimestamp(r.Start)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrNoStart, err)
		}
		if dateOnly && strings.TrimSpace(r.Time) != "" {
			combined, err := p.Local.At(p.Local.Date(t), r.Time)
			if err != nil {
				return time.Time{}, false, fmt.Errorf("%w: %v", ErrNoStart, err)
			}
			return combined, false, nil
		}
		return t, dateOnly, nil

	case strings.TrimSpace(r.Date) != "" && strings.TrimSpace(r.Time) != "":
		t, err := p.Local.At(r.Date, r.Time)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrNoStart, err)
		}
		return t, false, nil

	case strings.TrimSpace(r.Date) != "":
		t, err := p.Local.ParseDate(r.Date)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrNoStart, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, ErrNoStart
}

// parseTimestamp accepts zoned and zoneless ISO-8601 values as well as a
// bare date. The boolean reports a date-only value.
func (p *Planner) parseTimestamp(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return p.Local.In(t), false, nil
		}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, p.Local.Location()); err == nil {
			return t, false, nil
		}
	}
	if t, err := p.Local.ParseDate(s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: timestamp %q", localtime.ErrInvalidDate, s)
}

func (p *Planner) resolveDuration(r RawEvent, start time.Time) int {
	end, ok := p.resolveEnd(r)
	if ok {
		if end.Before(start) {
			p.log().Warn("ignoring end before start", "id", r.ID, "start", start, "end", end)
		} else {
			return int(math.Round(end.Sub(start).Minutes()))
		}
	}
	if r.DurationMinutes != nil {
		if *r.DurationMinutes >= 0 {
			return *r.DurationMinutes
		}
		p.log().Warn("ignoring negative duration", "id", r.ID, "duration", *r.DurationMinutes)
	}
	return defaultDurationMinutes
}

func (p *Planner) resolveEnd(r RawEvent) (time.Time, bool) {
	if !r.EndTime.IsZero() {
		return p.Local.In(r.EndTime), true
	}
	if strings.TrimSpace(r.End) == "" {
		return time.Time{}, false
	}
	t, _, err := p.parseTimestamp(r.End)
	if err != nil {
		p.log().Warn("ignoring unparseable end", "id", r.ID, "end", r.End, "error", err)
		return time.Time{}, false
	}
	return t, true
}
