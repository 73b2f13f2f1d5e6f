package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"calendar-assistant/internal/config"
	"calendar-assistant/internal/localtime"
	"calendar-assistant/internal/scheduling"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource records the range it was asked for.
type fakeSource struct {
	events   []scheduling.RawEvent
	err      error
	calls    int
	from, to time.Time
}

func (f *fakeSource) ListEvents(_ context.Context, from, to time.Time) ([]scheduling.RawEvent, error) {
	f.calls++
	f.from, f.to = from, to
	return f.events, f.err
}

type fakeListingSource struct {
	fakeSource
	calendars []CalendarInfo
}

func (f *fakeListingSource) ListCalendars(context.Context) ([]CalendarInfo, error) {
	return f.calendars, nil
}

// newTestApp returns a UTC app frozen at now, with default options and no
// providers.
func newTestApp(now time.Time) *App {
	return New(config.DefaultConfig(), time.UTC, localtime.FixedClock{T: now}, quietLogger())
}

func newTestRouter(a *App) *gin.Engine {
	router := gin.New()
	a.Routes(router, nil)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func intPtr(v int) *int { return &v }
