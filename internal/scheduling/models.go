package scheduling

import "time"

// RawEvent is an event record as handed over by a calendar provider or the
// voice layer. Exactly one way of expressing the start is expected: a native
// StartTime, an ISO-8601 Start string, or split Date and Time strings.
type RawEvent struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`

	Start     string    `json:"start,omitempty"`
	StartTime time.Time `json:"-"`
	Date      string    `json:"date,omitempty"`
	Time      string    `json:"time,omitempty"`

	End             string    `json:"end,omitempty"`
	EndTime         time.Time `json:"-"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// CanonicalEvent is an event reduced to local date, local time and duration.
type CanonicalEvent struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	AllDay          bool   `json:"all_day,omitempty"`
}

// CandidateInterval is a booking that has not been committed yet.
type CandidateInterval struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type ConflictKind string

const (
	// KindContained means the candidate lies fully inside the existing event.
	KindContained ConflictKind = "contained"
	// KindContains means the candidate fully encloses the existing event.
	KindContains ConflictKind = "contains"
	KindOverlaps ConflictKind = "overlaps"
)

type Conflict struct {
	Event CanonicalEvent `json:"event"`
	Kind  ConflictKind   `json:"kind"`
}

type ConflictResult struct {
	HasConflict     bool            `json:"has_conflict"`
	Conflicts       []Conflict      `json:"conflicts"`
	PrimaryConflict *CanonicalEvent `json:"primary_conflict"`
}

// FreeSlot is an open bookable start inside working hours.
type FreeSlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AlternativeSlot is a FreeSlot with display strings attached.
type AlternativeSlot struct {
	Time          string `json:"time"`
	Date          string `json:"date"`
	FormattedTime string `json:"formatted_time"`
	FormattedDate string `json:"formatted_date"`
}

// FreeWindow is an idle gap handed to the wishlist matcher.
type FreeWindow struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
	Date            string    `json:"date"`
}
