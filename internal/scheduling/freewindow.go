package scheduling

import (
	"sort"
	"time"
)

// WindowOptions controls the free window scan.
type WindowOptions struct {
	HorizonDays   int `json:"horizon_days" yaml:"horizon_days"`
	MinGapMinutes int `json:"min_gap_minutes" yaml:"min_gap_minutes"`
}

func DefaultWindowOptions() WindowOptions {
	return WindowOptions{HorizonDays: 14, MinGapMinutes: 120}
}

// ScanFreeWindows walks the calendar from now (rounded up to the hour) to
// the horizon and reports every idle gap of at least MinGapMinutes.
// Working hours are not applied. After each event the cursor moves to the
// event end rounded up to the hour, so windows never start at an odd minute.
func (p *Planner) ScanFreeWindows(events []CanonicalEvent, opts WindowOptions) []FreeWindow {
	def := DefaultWindowOptions()
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = def.HorizonDays
	}
	if opts.MinGapMinutes <= 0 {
		opts.MinGapMinutes = def.MinGapMinutes
	}

	now := p.Local.In(p.now())
	// Whole minutes, so a window's DurationMinutes always equals End-Start.
	horizonEnd := now.Truncate(time.Minute).AddDate(0, 0, opts.HorizonDays)
	minGap := time.Duration(opts.MinGapMinutes) * time.Minute

	upcoming := make([]span, 0, len(events))
	for _, s := range p.spans(events) {
		if !s.end.After(now) {
			continue
		}
		upcoming = append(upcoming, s)
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].start.Before(upcoming[j].start)
	})

	windows := []FreeWindow{}
	cursor := p.Local.CeilHour(now)

	for _, ev := range upcoming {
		if !ev.start.Before(horizonEnd) {
			break
		}
		if cursor.Before(ev.start) && ev.start.Sub(cursor) >= minGap {
			windows = append(windows, p.window(cursor, ev.start))
		}
		if next := p.Local.CeilHour(ev.end); next.After(cursor) {
			cursor = next
		}
	}

	if cursor.Before(horizonEnd) && horizonEnd.Sub(cursor) >= minGap {
		windows = append(windows, p.window(cursor, horizonEnd))
	}
	return windows
}

func (p *Planner) window(start, end time.Time) FreeWindow {
	return FreeWindow{
		Start:           start,
		End:             end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Date:            p.Local.Date(start),
	}
}
