package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/gin-gonic/gin"

	"calendar-assistant/internal/localtime"
	"calendar-assistant/internal/scheduling"
)

const icalDateLayout = "20060102"

var errNoDTStart = errors.New("missing DTSTART")

// ParseICS decodes every VCALENDAR in r and returns one raw event per
// VEVENT. Events that cannot be read are logged and skipped; only a
// broken stream is an error.
func ParseICS(r io.Reader, loc *time.Location, logger *slog.Logger) ([]scheduling.RawEvent, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dec := ical.NewDecoder(r)
	events := []scheduling.RawEvent{}
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ics: %w", err)
		}
		events = append(events, eventsFromCalendar(cal, loc, logger)...)
	}
	return events, nil
}

func eventsFromCalendar(cal *ical.Calendar, loc *time.Location, logger *slog.Logger) []scheduling.RawEvent {
	if loc == nil {
		loc = time.Local
	}
	var out []scheduling.RawEvent
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		raw, err := rawFromComponent(comp, loc)
		if err != nil {
			logger.Warn("skipping vevent", "uid", raw.ID, "summary", raw.Title, "error", err)
			continue
		}
		out = append(out, raw)
	}
	return out
}

func rawFromComponent(comp *ical.Component, loc *time.Location) (scheduling.RawEvent, error) {
	var raw scheduling.RawEvent
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		raw.ID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		raw.Title = prop.Value
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	if start == nil {
		return raw, errNoDTStart
	}
	if isDateValue(start) {
		day, err := time.ParseInLocation(icalDateLayout, start.Value, loc)
		if err != nil {
			return raw, fmt.Errorf("DTSTART: %w", err)
		}
		raw.Date = day.Format(localtime.DateLayout)
	} else {
		t, err := start.DateTime(loc)
		if err != nil {
			return raw, fmt.Errorf("DTSTART: %w", err)
		}
		raw.StartTime = t
	}

	if end := comp.Props.Get(ical.PropDateTimeEnd); end != nil {
		if isDateValue(end) {
			if day, err := time.ParseInLocation(icalDateLayout, end.Value, loc); err == nil {
				raw.End = day.Format(localtime.DateLayout)
			}
		} else if t, err := end.DateTime(loc); err == nil {
			raw.EndTime = t
		}
	} else if dur := comp.Props.Get(ical.PropDuration); dur != nil {
		if d, err := dur.Duration(); err == nil {
			minutes := int(d / time.Minute)
			raw.DurationMinutes = &minutes
		}
	}
	return raw, nil
}

func isDateValue(prop *ical.Prop) bool {
	if prop.Params.Get(ical.ParamValue) == string(ical.ValueDate) {
		return true
	}
	return len(strings.TrimSpace(prop.Value)) == len(icalDateLayout)
}

// POST /api/calendar/import
// Body is a text/calendar feed; the response holds the normalized events.
func (a *App) ImportICSHandler(c *gin.Context) {
	raws, err := ParseICS(c.Request.Body, a.Planner.Local.Location(), a.Logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	events := a.Planner.NormalizeAll(raws)
	c.JSON(http.StatusOK, eventsResponse{Events: events, Count: len(events)})
}
