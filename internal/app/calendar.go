package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calendar-assistant/internal/config"
	"calendar-assistant/internal/scheduling"
)

const googleTokenHeader = "X-Google-Token"

// GoogleCalendar holds the OAuth2 configuration for Google Calendar.
type GoogleCalendar struct {
	Config *oauth2.Config
	logger *slog.Logger
}

// NewGoogleCalendar returns nil when the client id, secret or redirect URL
// is missing.
func NewGoogleCalendar(cfg config.GoogleConfig, logger *slog.Logger) *GoogleCalendar {
	if !cfg.Enabled() {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleCalendar{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		logger: logger.With("component", "google"),
	}
}

// Source creates a calendar source from the JSON encoded oauth2 token sent
// by the client.
func (g *GoogleCalendar) Source(ctx context.Context, tokenJSON, calendarID string) (*GoogleSource, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	client := g.Config.Client(ctx, &token)
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleSource{service: srv, calendarID: calendarID, logger: g.logger}, nil
}

// GoogleSource reads one Google calendar.
type GoogleSource struct {
	service    *calendar.Service
	calendarID string
	logger     *slog.Logger
}

func (s *GoogleSource) ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.RawEvent, error) {
	var out []scheduling.RawEvent
	pageToken := ""
	for {
		call := s.service.Events.List(s.calendarID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			MaxResults(250)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list google events: %w", err)
		}
		out = append(out, toRawEvents(events.Items)...)
		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}
	s.logger.Debug("fetched google events", "calendar_id", s.calendarID, "count", len(out))
	return out, nil
}

func (s *GoogleSource) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := s.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list google calendars: %w", err)
	}
	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}
	return calendars, nil
}

// toRawEvents keeps the provider's start and end strings as they are; the
// normalizer reads both the DateTime and the all-day Date shapes.
func toRawEvents(items []*calendar.Event) []scheduling.RawEvent {
	out := make([]scheduling.RawEvent, 0, len(items))
	for _, item := range items {
		if item == nil || item.Status == "cancelled" || item.Start == nil {
			continue
		}
		raw := scheduling.RawEvent{ID: item.Id, Title: item.Summary}
		if item.Start.DateTime != "" {
			raw.Start = item.Start.DateTime
		} else {
			raw.Date = item.Start.Date
		}
		if item.End != nil {
			if item.End.DateTime != "" {
				raw.End = item.End.DateTime
			} else {
				raw.End = item.End.Date
			}
		}
		out = append(out, raw)
	}
	return out
}

// GET /api/calendar/auth
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	state := fmt.Sprintf("user_%s_%s", c.Query("user_id"), uuid.NewString())
	url := a.Google.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := a.Google.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		a.Logger.Warn("oauth code exchange failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	// The client keeps the token and sends it back in X-Google-Token.
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// sourceFor picks the event source of a request: the caller's Google
// calendar when a token is attached, the configured CalDAV server
// otherwise.
func (a *App) sourceFor(c *gin.Context) (EventSource, error) {
	if token := strings.TrimSpace(c.GetHeader(googleTokenHeader)); token != "" {
		if a.Google == nil {
			return nil, fmt.Errorf("%w: Google Calendar not configured", ErrNoEventSource)
		}
		return a.Google.Source(c.Request.Context(), token, c.Query("calendar_id"))
	}
	if a.CalDAV != nil {
		return a.CalDAV, nil
	}
	return nil, ErrNoEventSource
}
