package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/emersion/go-webdav/caldav"

	"calendar-assistant/internal/config"
	"calendar-assistant/internal/scheduling"
)

// CalDAVClient reads events from one calendar collection of a CalDAV
// server.
type CalDAVClient struct {
	cfg    config.CalDAVConfig
	loc    *time.Location
	logger *slog.Logger

	mu     sync.Mutex
	client *caldav.Client
}

func NewCalDAVClient(cfg config.CalDAVConfig, loc *time.Location, logger *slog.Logger) *CalDAVClient {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalDAVClient{cfg: cfg, loc: loc, logger: logger}
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *CalDAVClient) connect() (*caldav.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if c.cfg.Username != "" {
		httpClient.Transport = &basicAuthTransport{username: c.cfg.Username, password: c.cfg.Password}
	}
	client, err := caldav.NewClient(httpClient, c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to caldav: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *CalDAVClient) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.RawEvent, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			Comps: []caldav.CalendarCompRequest{
				{Name: "VEVENT", AllProps: true},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{Name: "VEVENT", Start: from.UTC(), End: to.UTC()},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, c.cfg.CalendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query caldav calendar %s: %w", c.cfg.CalendarPath, err)
	}

	var events []scheduling.RawEvent
	for _, obj := range objects {
		if obj.Data == nil {
			c.logger.Warn("skipping calendar object without data", "path", obj.Path)
			continue
		}
		events = append(events, eventsFromCalendar(obj.Data, c.loc, c.logger)...)
	}
	c.logger.Debug("fetched caldav events", "path", c.cfg.CalendarPath, "objects", len(objects), "events", len(events))
	return events, nil
}

func (c *CalDAVClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	out := make([]CalendarInfo, 0, len(cals))
	for _, cal := range cals {
		out = append(out, CalendarInfo{
			ID:          cal.Path,
			Summary:     cal.Name,
			Description: cal.Description,
			Primary:     cal.Path == c.cfg.CalendarPath,
		})
	}
	return out, nil
}
