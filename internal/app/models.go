package app

import (
	"encoding/json"
	"time"

	"calendar-assistant/internal/cache"
	"calendar-assistant/internal/scheduling"
)

// Events left out of a request body (or sent as null) are pulled from the
// request's event source. An explicit empty list means an empty calendar.

type conflictRequest struct {
	Candidate scheduling.CandidateInterval `json:"candidate"`
	Events    []scheduling.RawEvent        `json:"events"`
}

type conflictResponse struct {
	Result       scheduling.ConflictResult    `json:"result"`
	Alternatives []scheduling.AlternativeSlot `json:"alternatives"`
}

type alternativesRequest struct {
	Candidate scheduling.CandidateInterval `json:"candidate"`
	Events    []scheduling.RawEvent        `json:"events"`
	Count     int                          `json:"count"`
}

type freeWindowsRequest struct {
	Events        []scheduling.RawEvent `json:"events"`
	HorizonDays   int                   `json:"horizon_days"`
	MinGapMinutes int                   `json:"min_gap_minutes"`
}

type analysisRequest struct {
	Payload   json.RawMessage `json:"payload"`
	EventDate string          `json:"event_date"`
}

type analysisResponse struct {
	Key      string                 `json:"key"`
	Payload  json.RawMessage        `json:"payload,omitempty"`
	Metadata *cache.AnalysisMetadata `json:"metadata,omitempty"`
	// TasksCleared counts task states dropped because the event was
	// re-analyzed or deleted.
	TasksCleared int `json:"tasks_cleared,omitempty"`
}

type tasksRequest struct {
	Tasks []cache.Task `json:"tasks"`
}

type tasksResponse struct {
	EventID        string       `json:"event_id"`
	UserID         string       `json:"user_id,omitempty"`
	Tasks          []cache.Task `json:"tasks"`
	CompletedCount int          `json:"completed_count"`
}

// CalendarInfo describes one calendar of the connected account.
type CalendarInfo struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role,omitempty"`
}

type eventsResponse struct {
	Events []scheduling.CanonicalEvent `json:"events"`
	Count  int                         `json:"count"`
	From   *time.Time                  `json:"from,omitempty"`
	To     *time.Time                  `json:"to,omitempty"`
}
