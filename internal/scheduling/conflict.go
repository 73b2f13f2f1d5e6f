package scheduling

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func classify(cStart, cEnd, eStart, eEnd time.Time) ConflictKind {
	switch {
	case !cStart.Before(eStart) && !cEnd.After(eEnd):
		return KindContained
	case !cStart.After(eStart) && !cEnd.Before(eEnd):
		return KindContains
	default:
		return KindOverlaps
	}
}

// Check tests a candidate booking against existing commitments. Every
// conflicting event is reported in input order; the first one is primary.
// A candidate that cannot be parsed yields an empty result.
func (p *Planner) Check(candidate CandidateInterval, existing []CanonicalEvent) ConflictResult {
	result := ConflictResult{Conflicts: []Conflict{}}

	cStart, cEnd, err := p.Interval(candidate.Date, candidate.Time, candidate.DurationMinutes)
	if err != nil {
		p.log().Warn("unparseable candidate", "date", candidate.Date, "time", candidate.Time, "error", err)
		return result
	}

	for _, s := range p.spans(existing) {
		if !Overlaps(cStart, cEnd, s.start, s.end) {
			continue
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Event: s.event,
			Kind:  classify(cStart, cEnd, s.start, s.end),
		})
	}

	if len(result.Conflicts) > 0 {
		result.HasConflict = true
		primary := result.Conflicts[0].Event
		result.PrimaryConflict = &primary
	}
	return result
}
