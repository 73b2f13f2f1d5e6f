package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps_Symmetric(t *testing.T) {
	base := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	cases := [][4]int{
		{0, 60, 30, 90},
		{0, 60, 60, 120},
		{0, 120, 30, 60},
		{0, 60, 90, 120},
		{10, 10, 0, 60},
		{0, 60, 0, 60},
	}
	for _, c := range cases {
		ab := Overlaps(at(c[0]), at(c[1]), at(c[2]), at(c[3]))
		ba := Overlaps(at(c[2]), at(c[3]), at(c[0]), at(c[1]))
		assert.Equal(t, ab, ba, "intervals %v", c)
	}
}

func TestCheck_TouchingEndpointsDoNotConflict(t *testing.T) {
	p := newTestPlanner(time.Now())
	existing := []CanonicalEvent{ev("2025-10-05", "14:00", 60)}

	before := p.Check(CandidateInterval{Date: "2025-10-05", Time: "13:00", DurationMinutes: 60}, existing)
	after := p.Check(CandidateInterval{Date: "2025-10-05", Time: "15:00", DurationMinutes: 30}, existing)

	assert.False(t, before.HasConflict)
	assert.False(t, after.HasConflict)
	assert.Nil(t, before.PrimaryConflict)
	assert.Empty(t, after.Conflicts)
}

func TestCheck_Kinds(t *testing.T) {
	p := newTestPlanner(time.Now())
	existing := []CanonicalEvent{ev("2025-10-05", "14:00", 60)}

	tests := []struct {
		name      string
		candidate CandidateInterval
		kind      ConflictKind
	}{
		{"overlaps tail", CandidateInterval{"2025-10-05", "14:30", 60}, KindOverlaps},
		{"overlaps head", CandidateInterval{"2025-10-05", "13:30", 60}, KindOverlaps},
		{"contained", CandidateInterval{"2025-10-05", "14:15", 30}, KindContained},
		{"identical is contained", CandidateInterval{"2025-10-05", "14:00", 60}, KindContained},
		{"contains", CandidateInterval{"2025-10-05", "13:00", 180}, KindContains},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Check(tt.candidate, existing)
			require.True(t, res.HasConflict)
			require.Len(t, res.Conflicts, 1)
			assert.Equal(t, tt.kind, res.Conflicts[0].Kind)
			require.NotNil(t, res.PrimaryConflict)
			assert.Equal(t, existing[0], *res.PrimaryConflict)
		})
	}
}

func TestCheck_ReportsEveryConflictFirstIsPrimary(t *testing.T) {
	p := newTestPlanner(time.Now())
	existing := []CanonicalEvent{
		{ID: "morning", Date: "2025-10-05", Time: "09:00", DurationMinutes: 60},
		{ID: "lunch", Date: "2025-10-05", Time: "12:00", DurationMinutes: 60},
		{ID: "standup", Date: "2025-10-05", Time: "09:30", DurationMinutes: 15},
		{ID: "broken", Date: "2025-13-45", Time: "09:30", DurationMinutes: 15},
	}

	res := p.Check(CandidateInterval{Date: "2025-10-05", Time: "09:15", DurationMinutes: 60}, existing)

	require.True(t, res.HasConflict)
	require.Len(t, res.Conflicts, 2)
	assert.Equal(t, "morning", res.Conflicts[0].Event.ID)
	assert.Equal(t, KindOverlaps, res.Conflicts[0].Kind)
	assert.Equal(t, "standup", res.Conflicts[1].Event.ID)
	assert.Equal(t, KindContains, res.Conflicts[1].Kind)
	assert.Equal(t, "morning", res.PrimaryConflict.ID)
}

func TestCheck_InvalidCandidate(t *testing.T) {
	p := newTestPlanner(time.Now())
	res := p.Check(CandidateInterval{Date: "tomorrow", Time: "14:00", DurationMinutes: 60},
		[]CanonicalEvent{ev("2025-10-05", "14:00", 60)})

	assert.False(t, res.HasConflict)
	assert.NotNil(t, res.Conflicts)
}
