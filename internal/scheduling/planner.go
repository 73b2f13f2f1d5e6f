// Package scheduling holds the pure scheduling core: event normalization,
// conflict detection, slot search and free window scanning. Nothing here
// performs I/O or keeps state between calls.
package scheduling

import (
	"log/slog"
	"time"

	"calendar-assistant/internal/localtime"
)

const defaultDurationMinutes = 60

// Planner bundles what every scheduling operation needs: the local zone,
// the reference clock and the default options.
type Planner struct {
	Local  localtime.LocalTime
	Clock  localtime.Clock
	Logger *slog.Logger

	Slots   SlotOptions
	Windows WindowOptions
}

// NewPlanner creates a Planner with default slot and window options.
func NewPlanner(loc *time.Location, clock localtime.Clock, logger *slog.Logger) *Planner {
	if clock == nil {
		clock = localtime.RealClock{}
	}
	return &Planner{
		Local:   localtime.New(loc),
		Clock:   clock,
		Logger:  logger,
		Slots:   DefaultSlotOptions(),
		Windows: DefaultWindowOptions(),
	}
}

func (p *Planner) log() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Planner) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}

// Interval returns the half-open [start, end) instants of a local
// date/time/duration triple.
func (p *Planner) Interval(date, clock string, durationMinutes int) (time.Time, time.Time, error) {
	start, err := p.Local.At(date, clock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(time.Duration(durationMinutes) * time.Minute), nil
}

type span struct {
	event      CanonicalEvent
	start, end time.Time
}

// spans converts canonical events to instants, skipping entries that fail
// to parse.
func (p *Planner) spans(events []CanonicalEvent) []span {
	out := make([]span, 0, len(events))
	for _, e := range events {
		start, end, err := p.Interval(e.Date, e.Time, e.DurationMinutes)
		if err != nil {
			p.log().Warn("skipping unparseable event", "id", e.ID, "date", e.Date, "time", e.Time, "error", err)
			continue
		}
		out = append(out, span{event: e, start: start, end: end})
	}
	return out
}
