// Package app wires the scheduling core and the caches to calendar
// providers and exposes them over HTTP.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"calendar-assistant/internal/cache"
	"calendar-assistant/internal/config"
	"calendar-assistant/internal/localtime"
	"calendar-assistant/internal/scheduling"
)

var (
	// ErrNoEventSource is returned when a request needs calendar events but
	// neither a Google token nor a CalDAV server is available.
	ErrNoEventSource = errors.New("no event source available")
	// ErrInvalidToken is returned for a malformed X-Google-Token header.
	ErrInvalidToken = errors.New("invalid google token")
)

// EventSource lists raw events of one calendar between two instants.
type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.RawEvent, error)
}

// CalendarLister is implemented by sources that can enumerate calendars.
type CalendarLister interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
}

type App struct {
	Planner  *scheduling.Planner
	Analysis *cache.AnalysisCache
	Tasks    *cache.TaskCache

	Google *GoogleCalendar
	CalDAV EventSource

	AlternativeCount int
	Logger           *slog.Logger
}

// New builds an App from configuration. CalDAV and Google are left nil
// when they are not configured.
func New(cfg *config.Config, loc *time.Location, clock localtime.Clock, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	planner := scheduling.NewPlanner(loc, clock, logger.With("component", "planner"))
	planner.Slots = cfg.Slots
	planner.Windows = cfg.Windows

	a := &App{
		Planner:          planner,
		Analysis:         cache.NewAnalysisCache(clock, loc, logger.With("component", "analysis_cache")),
		Tasks:            cache.NewTaskCache(),
		Google:           NewGoogleCalendar(cfg.Google, logger),
		AlternativeCount: cfg.AlternativeCount,
		Logger:           logger,
	}
	if cfg.CalDAV.Enabled() {
		a.CalDAV = NewCalDAVClient(cfg.CalDAV, loc, logger.With("component", "caldav"))
	}
	return a
}

func (a *App) now() time.Time {
	return a.Planner.Local.In(a.Planner.Clock.Now())
}
