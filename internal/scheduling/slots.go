package scheduling

import (
	"time"
)

const (
	slotStep        = 30 * time.Minute
	maxSlotsPerDay  = 10
	searchDays      = 3
	defaultAltCount = 3
)

// SlotOptions bounds the slot search to working hours.
type SlotOptions struct {
	StartHour     int `json:"start_hour" yaml:"start_hour"`
	EndHour       int `json:"end_hour" yaml:"end_hour"`
	BufferMinutes int `json:"buffer_minutes" yaml:"buffer_minutes"`
}

func DefaultSlotOptions() SlotOptions {
	return SlotOptions{StartHour: 9, EndHour: 17, BufferMinutes: 15}
}

// FindSlots enumerates half-hour aligned starts in [StartHour, EndHour) on
// targetDate that fit durationMinutes without touching any busy interval,
// that end by EndHour and that start no earlier than now plus the buffer.
// At most ten slots are returned, earliest first.
func (p *Planner) FindSlots(targetDate string, durationMinutes int, dayEvents []CanonicalEvent, opts SlotOptions) []FreeSlot {
	day, err := p.Local.ParseDate(targetDate)
	if err != nil {
		p.log().Warn("slot search on invalid date", "date", targetDate, "error", err)
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = defaultDurationMinutes
	}
	if opts.EndHour <= opts.StartHour {
		p.log().Warn("empty working hours", "start_hour", opts.StartHour, "end_hour", opts.EndHour)
		return nil
	}

	busy := p.spans(dayEvents)
	windowStart := p.Local.AtHour(day, opts.StartHour)
	windowEnd := p.Local.AtHour(day, opts.EndHour)
	earliest := p.now().Add(time.Duration(opts.BufferMinutes) * time.Minute)
	slotLen := time.Duration(durationMinutes) * time.Minute

	var slots []FreeSlot
	for s := windowStart; s.Before(windowEnd) && len(slots) < maxSlotsPerDay; s = s.Add(slotStep) {
		e := s.Add(slotLen)
		if e.After(windowEnd) {
			break
		}
		if s.Before(earliest) {
			continue
		}
		if overlapsAny(s, e, busy) {
			continue
		}
		slots = append(slots, FreeSlot{
			Date:      p.Local.Date(s),
			Time:      p.Local.Clock(s),
			Available: true,
		})
	}
	return slots
}

func overlapsAny(start, end time.Time, busy []span) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.start, b.end) {
			return true
		}
	}
	return false
}

// SuggestAlternatives proposes up to n open slots for the requested
// booking, starting on the requested date and spilling over into the next
// two days when the day is too full. An empty list is a normal outcome.
func (p *Planner) SuggestAlternatives(requested CandidateInterval, existing []CanonicalEvent, n int) []AlternativeSlot {
	if n <= 0 {
		n = defaultAltCount
	}

	var found []FreeSlot
	for offset := 0; offset < searchDays && len(found) < n; offset++ {
		date, err := p.Local.AddDays(requested.Date, offset)
		if err != nil {
			p.log().Warn("alternative search on invalid date", "date", requested.Date, "error", err)
			return []AlternativeSlot{}
		}
		found = append(found, p.FindSlots(date, requested.DurationMinutes, existing, p.Slots)...)
	}
	if len(found) > n {
		found = found[:n]
	}

	out := make([]AlternativeSlot, 0, len(found))
	for _, s := range found {
		t, err := p.Local.At(s.Date, s.Time)
		if err != nil {
			continue
		}
		out = append(out, AlternativeSlot{
			Time:          s.Time,
			Date:          s.Date,
			FormattedTime: t.Format("3:04 PM"),
			FormattedDate: t.Format("Jan 2"),
		})
	}
	return out
}
