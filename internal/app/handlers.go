package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"calendar-assistant/internal/cache"
	"calendar-assistant/internal/scheduling"
)

const searchDays = 3

// abortWithError maps an error to a status: bad input and a missing source
// are the caller's fault, everything else came from the provider.
func (a *App) abortWithError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, ErrNoEventSource) || errors.Is(err, ErrInvalidToken) {
		status = http.StatusBadRequest
	} else {
		a.Logger.Error("event source failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// eventsFor normalizes the inline events of a request, or fetches the
// events between from and to from the request's source when none were sent.
func (a *App) eventsFor(c *gin.Context, inline []scheduling.RawEvent, from, to time.Time) ([]scheduling.CanonicalEvent, error) {
	if inline != nil {
		return a.Planner.NormalizeAll(inline), nil
	}
	src, err := a.sourceFor(c)
	if err != nil {
		return nil, err
	}
	raws, err := src.ListEvents(c.Request.Context(), from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return a.Planner.NormalizeAll(raws), nil
}

func (a *App) validateCandidate(cand scheduling.CandidateInterval) error {
	if cand.DurationMinutes <= 0 {
		return errors.New("candidate.duration_minutes must be positive")
	}
	if _, _, err := a.Planner.Interval(cand.Date, cand.Time, cand.DurationMinutes); err != nil {
		return fmt.Errorf("invalid candidate: %w", err)
	}
	return nil
}

// searchRange covers the requested day and the days alternatives may
// spill into.
func (a *App) searchRange(date string) (time.Time, time.Time) {
	day, _ := a.Planner.Local.ParseDate(date)
	return day, day.AddDate(0, 0, searchDays)
}

// POST /api/conflicts
func (a *App) CheckConflictHandler(c *gin.Context) {
	var req conflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.validateCandidate(req.Candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, to := a.searchRange(req.Candidate.Date)
	events, err := a.eventsFor(c, req.Events, from, to)
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	result := a.Planner.Check(req.Candidate, events)
	alternatives := []scheduling.AlternativeSlot{}
	if result.HasConflict {
		alternatives = a.Planner.SuggestAlternatives(req.Candidate, events, a.AlternativeCount)
		a.Logger.Info("booking conflict",
			"date", req.Candidate.Date,
			"time", req.Candidate.Time,
			"conflicts", len(result.Conflicts),
			"alternatives", len(alternatives))
	}
	c.JSON(http.StatusOK, conflictResponse{Result: result, Alternatives: alternatives})
}

// GET /api/slots?date=YYYY-MM-DD&duration=60
func (a *App) GetSlotsHandler(c *gin.Context) {
	date := c.Query("date")
	day, err := a.Planner.Local.ParseDate(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date required as YYYY-MM-DD"})
		return
	}
	duration := 60
	if s := c.Query("duration"); s != "" {
		duration, err = strconv.Atoi(s)
		if err != nil || duration <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
	}

	events, err := a.eventsFor(c, nil, day, day.AddDate(0, 0, 1))
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	slots := a.Planner.FindSlots(date, duration, events, a.Planner.Slots)
	if slots == nil {
		slots = []scheduling.FreeSlot{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
		"count": len(slots),
	})
}

// POST /api/alternatives
func (a *App) SuggestAlternativesHandler(c *gin.Context) {
	var req alternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.validateCandidate(req.Candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count := req.Count
	if count <= 0 {
		count = a.AlternativeCount
	}

	from, to := a.searchRange(req.Candidate.Date)
	events, err := a.eventsFor(c, req.Events, from, to)
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	alternatives := a.Planner.SuggestAlternatives(req.Candidate, events, count)
	c.JSON(http.StatusOK, gin.H{
		"alternatives": alternatives,
		"count":        len(alternatives),
	})
}

// POST /api/free-windows
func (a *App) FreeWindowsHandler(c *gin.Context) {
	var req freeWindowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := a.Planner.Windows
	if req.HorizonDays > 0 {
		opts.HorizonDays = req.HorizonDays
	}
	if req.MinGapMinutes > 0 {
		opts.MinGapMinutes = req.MinGapMinutes
	}

	now := a.now()
	events, err := a.eventsFor(c, req.Events, now, now.AddDate(0, 0, opts.HorizonDays))
	if err != nil {
		a.abortWithError(c, err)
		return
	}

	windows := a.Planner.ScanFreeWindows(events, opts)
	c.JSON(http.StatusOK, gin.H{
		"windows": windows,
		"count":   len(windows),
	})
}

// GET /api/calendar/events?time_min=RFC3339&time_max=RFC3339
func (a *App) ListEventsHandler(c *gin.Context) {
	from := a.now()
	to := from.AddDate(0, 0, a.Planner.Windows.HorizonDays)
	var err error
	if s := c.Query("time_min"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_min"})
			return
		}
	}
	if s := c.Query("time_max"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_max"})
			return
		}
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time_min must be before time_max"})
		return
	}

	events, err := a.eventsFor(c, nil, from, to)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, eventsResponse{Events: events, Count: len(events), From: &from, To: &to})
}

// GET /api/calendar/calendars
func (a *App) ListCalendarsHandler(c *gin.Context) {
	src, err := a.sourceFor(c)
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	lister, ok := src.(CalendarLister)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event source cannot list calendars"})
		return
	}
	calendars, err := lister.ListCalendars(c.Request.Context())
	if err != nil {
		a.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": calendars,
		"count":     len(calendars),
	})
}

// PUT /api/analysis/:key
func (a *App) PutAnalysisHandler(c *gin.Context) {
	key := c.Param("key")
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload required"})
		return
	}
	eventDate, err := a.Planner.Local.ParseDate(req.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_date required as YYYY-MM-DD"})
		return
	}
	if a.Planner.Local.EndOfDay(eventDate).Before(a.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_date is in the past"})
		return
	}

	// Tasks generated by an earlier analysis are stale once the event is
	// analyzed again.
	resp := analysisResponse{Key: key}
	if a.Analysis.IsAnalyzed(key) {
		resp.TasksCleared = a.Tasks.ClearEvent(key)
		a.Logger.Info("event re-analyzed", "key", key, "tasks_cleared", resp.TasksCleared)
	}
	expiresAt := a.Analysis.Set(key, req.Payload, eventDate)
	meta, ok := a.Analysis.Metadata(key)
	if !ok {
		meta = cache.AnalysisMetadata{Key: key, AnalyzedAt: a.now(), ExpiresAt: expiresAt}
	}
	resp.Metadata = &meta
	c.JSON(http.StatusOK, resp)
}

// PATCH /api/analysis/:key
// Replaces the payload of a live entry and keeps its expiry.
func (a *App) RefreshAnalysisHandler(c *gin.Context) {
	key := c.Param("key")
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload required"})
		return
	}
	if !a.Analysis.Refresh(key, req.Payload) {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	meta, _ := a.Analysis.Metadata(key)
	c.JSON(http.StatusOK, analysisResponse{Key: key, Metadata: &meta})
}

// GET /api/analysis/:key
func (a *App) GetAnalysisHandler(c *gin.Context) {
	key := c.Param("key")
	payload, ok := a.Analysis.Get(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	resp := analysisResponse{Key: key, Payload: payload}
	if meta, ok := a.Analysis.Metadata(key); ok {
		resp.Metadata = &meta
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/analysis/:key/status
func (a *App) AnalysisStatusHandler(c *gin.Context) {
	key := c.Param("key")
	meta, ok := a.Analysis.Metadata(key)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"key": key, "analyzed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key":         key,
		"analyzed":    true,
		"analyzed_at": meta.AnalyzedAt,
		"expires_at":  meta.ExpiresAt,
	})
}

// DELETE /api/analysis/:key
func (a *App) DeleteAnalysisHandler(c *gin.Context) {
	key := c.Param("key")
	a.Analysis.Delete(key)
	n := a.Tasks.ClearEvent(key)
	c.JSON(http.StatusOK, gin.H{"ok": true, "tasks_cleared": n})
}

func taskKey(c *gin.Context) cache.TaskKey {
	return cache.TaskKey{
		UserID:  strings.TrimSpace(c.Query("user_id")),
		EventID: c.Param("event_id"),
	}
}

func (a *App) writeTasks(c *gin.Context, key cache.TaskKey) {
	c.JSON(http.StatusOK, tasksResponse{
		EventID:        key.EventID,
		UserID:         key.UserID,
		Tasks:          a.Tasks.RemainingTasks(key),
		CompletedCount: a.Tasks.CompletedCount(key),
	})
}

// PUT /api/events/:event_id/tasks
func (a *App) SetTasksHandler(c *gin.Context) {
	var req tasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := taskKey(c)
	a.Tasks.SetRemainingTasks(key, req.Tasks)
	a.writeTasks(c, key)
}

// POST /api/events/:event_id/tasks/complete
func (a *App) CompleteTasksHandler(c *gin.Context) {
	var req tasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Tasks) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tasks required"})
		return
	}
	key := taskKey(c)
	a.Tasks.MarkTasksCompleted(key, req.Tasks)
	a.writeTasks(c, key)
}

// GET /api/events/:event_id/tasks
func (a *App) ListTasksHandler(c *gin.Context) {
	a.writeTasks(c, taskKey(c))
}

// DELETE /api/events/:event_id/tasks
// With user_id only that user's state goes; without it the event is
// cleared for every user.
func (a *App) ClearTasksHandler(c *gin.Context) {
	key := taskKey(c)
	if key.UserID != "" {
		n := 0
		if a.Tasks.Clear(key) {
			n = 1
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "cleared": n})
		return
	}
	n := a.Tasks.ClearEvent(key.EventID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "cleared": n})
}

// DELETE /api/tasks
func (a *App) ClearAllTasksHandler(c *gin.Context) {
	a.Tasks.ClearAll()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
