package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotTimes(slots []FreeSlot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Date+" "+s.Time)
	}
	return out
}

func TestConflictThenAlternatives_Scenario(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC))
	existing := []CanonicalEvent{ev("2025-10-05", "14:00", 60)}
	candidate := CandidateInterval{Date: "2025-10-05", Time: "14:30", DurationMinutes: 60}

	res := p.Check(candidate, existing)
	require.True(t, res.HasConflict)
	assert.Equal(t, KindOverlaps, res.Conflicts[0].Kind)

	alts := p.SuggestAlternatives(candidate, existing, 3)
	require.Len(t, alts, 3)
	assert.Equal(t, AlternativeSlot{Time: "09:00", Date: "2025-10-05", FormattedTime: "9:00 AM", FormattedDate: "Oct 5"}, alts[0])
	assert.Equal(t, "09:30", alts[1].Time)
	assert.Equal(t, "10:00", alts[2].Time)
}

func TestFindSlots_RespectsBufferAfterNow(t *testing.T) {
	now := time.Date(2025, 10, 5, 10, 20, 0, 0, time.UTC)
	p := newTestPlanner(now)

	slots := p.FindSlots("2025-10-05", 30, nil, DefaultSlotOptions())

	require.NotEmpty(t, slots)
	earliest := now.Add(15 * time.Minute)
	for _, s := range slots {
		start, _, err := p.Interval(s.Date, s.Time, 30)
		require.NoError(t, err)
		assert.False(t, start.Before(earliest), "slot %s starts before buffer", s.Time)
		assert.True(t, s.Available)
	}
	// 10:30 is inside the buffer window, 11:00 is the first legal start.
	assert.Equal(t, "11:00", slots[0].Time)
}

func TestFindSlots_SkipsBusyAndWorkingHoursEnd(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC))
	events := []CanonicalEvent{
		ev("2025-10-05", "09:00", 240),
		ev("2025-10-05", "14:00", 120),
	}

	slots := p.FindSlots("2025-10-05", 60, events, DefaultSlotOptions())

	assert.Equal(t, []string{
		"2025-10-05 13:00",
		"2025-10-05 16:00",
	}, slotTimes(slots))
}

func TestFindSlots_CapsAtTen(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC))
	slots := p.FindSlots("2025-10-05", 30, nil, SlotOptions{StartHour: 0, EndHour: 24})
	assert.Len(t, slots, 10)
	assert.Equal(t, "00:00", slots[0].Time)
	assert.Equal(t, "04:30", slots[9].Time)
}

func TestFindSlots_InvalidInput(t *testing.T) {
	p := newTestPlanner(time.Now())
	assert.Empty(t, p.FindSlots("not-a-date", 30, nil, DefaultSlotOptions()))
	assert.Empty(t, p.FindSlots("2025-10-05", 30, nil, SlotOptions{StartHour: 17, EndHour: 9}))
}

func TestSuggestAlternatives_SpillsIntoNextDays(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC))
	existing := []CanonicalEvent{
		ev("2025-10-05", "09:00", 8*60),
		ev("2025-10-06", "09:00", 7*60),
	}

	alts := p.SuggestAlternatives(CandidateInterval{Date: "2025-10-05", Time: "10:00", DurationMinutes: 60}, existing, 3)

	require.Len(t, alts, 3)
	assert.Equal(t, "2025-10-06", alts[0].Date)
	assert.Equal(t, "16:00", alts[0].Time)
	assert.Equal(t, "4:00 PM", alts[0].FormattedTime)
	assert.Equal(t, "Oct 6", alts[0].FormattedDate)
	assert.Equal(t, "2025-10-07", alts[1].Date)
	assert.Equal(t, "09:00", alts[1].Time)
	assert.Equal(t, "2025-10-07", alts[2].Date)
	assert.Equal(t, "09:30", alts[2].Time)

	for _, a := range alts {
		res := p.Check(CandidateInterval{Date: a.Date, Time: a.Time, DurationMinutes: 60}, existing)
		assert.False(t, res.HasConflict, "alternative %s %s conflicts", a.Date, a.Time)
	}
}

func TestSuggestAlternatives_NoneFound(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC))
	existing := []CanonicalEvent{
		ev("2025-10-05", "00:00", 3*24*60),
	}

	alts := p.SuggestAlternatives(CandidateInterval{Date: "2025-10-05", Time: "10:00", DurationMinutes: 30}, existing, 3)

	assert.NotNil(t, alts)
	assert.Empty(t, alts)
}

func TestSuggestAlternatives_DefaultCountAndDeterminism(t *testing.T) {
	p := newTestPlanner(time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC))
	req := CandidateInterval{Date: "2025-10-05", Time: "10:00", DurationMinutes: 45}

	first := p.SuggestAlternatives(req, nil, 0)
	second := p.SuggestAlternatives(req, nil, 0)

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)
}
