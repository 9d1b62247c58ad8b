package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/db"
	"github.com/banshee-data/groundstation/internal/serialmux"
	"github.com/banshee-data/groundstation/internal/station"
	"github.com/banshee-data/groundstation/internal/version"
)

type fakeController struct {
	status  station.Status
	pauses  int
	outputs int
}

func (f *fakeController) Status() station.Status { return f.status }

func (f *fakeController) TogglePause() bool {
	f.pauses++
	f.status.Paused = !f.status.Paused
	return f.status.Paused
}

func (f *fakeController) ToggleOutput() audio.Device {
	f.outputs++
	if f.status.Output == audio.Buzzer {
		f.status.Output = audio.Headphones
	} else {
		f.status.Output = audio.Buzzer
	}
	return f.status.Output
}

type fakeHistory struct {
	cycles       []station.Cycle
	err          error
	gotLimit     int
	gotSession   string
	summaryCalls int
}

func (f *fakeHistory) RecentCycles(_ context.Context, limit int) ([]station.Cycle, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.cycles) {
		return f.cycles[:limit], nil
	}
	return f.cycles, nil
}

func (f *fakeHistory) Summary(_ context.Context, session string) (db.Summary, error) {
	f.summaryCalls++
	f.gotSession = session
	if f.err != nil {
		return db.Summary{}, f.err
	}
	return db.Summary{Cycles: len(f.cycles), Readings: len(f.cycles), RSSIMean: -42.5}, nil
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleCycles() []station.Cycle {
	// newest first, as the database returns them
	return []station.Cycle{
		{Session: "s1", Seq: 3, At: t0.Add(4 * time.Second), Cursor: 2, RSSI: -45, ToneHz: 2794, Paused: true, Replayed: true, Device: audio.Headphones, Transmitted: true},
		{Session: "s1", Seq: 2, At: t0.Add(2 * time.Second), Cursor: 1, RSSI: -45, ToneHz: 2794, Device: audio.Buzzer, Transmitted: true},
		{Session: "s1", Seq: 1, At: t0, Cursor: 0, RSSI: -40, ToneHz: 3000, Device: audio.Buzzer},
	}
}

func newTestServer(history History, link serialmux.LinkInterface) (*fakeController, http.Handler) {
	ctl := &fakeController{status: station.Status{
		Session: "s1",
		Cursor:  3,
		Cycles:  3,
		Display: []string{"Input: -45 dB", "2794"},
	}}
	return ctl, NewServer(ctl, history, link).ServeMux()
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStatus(t *testing.T) {
	port := serialmux.NewTestableSerialPort()
	link := serialmux.NewLink(port)
	require.NoError(t, link.Send(-40))

	_, h := newTestServer(nil, link)
	rec := do(h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Session string           `json:"session"`
		Paused  bool             `json:"paused"`
		Output  string           `json:"output"`
		Cursor  int              `json:"cursor"`
		Display []string         `json:"display"`
		Serial  *serialmux.Stats `json:"serial"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "s1", body.Session)
	assert.Equal(t, "buzzer", body.Output)
	assert.Equal(t, 3, body.Cursor)
	assert.Equal(t, []string{"Input: -45 dB", "2794"}, body.Display)
	require.NotNil(t, body.Serial)
	assert.EqualValues(t, 1, body.Serial.Sent)
}

func TestStatusWithoutLink(t *testing.T) {
	_, h := newTestServer(nil, nil)
	rec := do(h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"serial"`)
}

func TestPressEndpoints(t *testing.T) {
	ctl, h := newTestServer(nil, nil)

	rec := do(h, http.MethodPost, "/api/pause")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paused": true}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/output")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"output": "headphones"}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/api/pause")
	assert.JSONEq(t, `{"paused": false}`, rec.Body.String())

	assert.Equal(t, 2, ctl.pauses)
	assert.Equal(t, 1, ctl.outputs)
}

func TestPressEndpointsRequirePost(t *testing.T) {
	ctl, h := newTestServer(nil, nil)
	for _, path := range []string{"/api/pause", "/api/output"} {
		rec := do(h, http.MethodGet, path)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
	assert.Zero(t, ctl.pauses)
	assert.Zero(t, ctl.outputs)
}

func TestHistory(t *testing.T) {
	history := &fakeHistory{cycles: sampleCycles()}
	_, h := newTestServer(history, nil)

	rec := do(h, http.MethodGet, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, history.gotLimit)

	var body struct {
		Cycles []station.Cycle `json:"cycles"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Cycles, 2)
	assert.Equal(t, int64(3), body.Cycles[0].Seq)
	assert.Equal(t, audio.Headphones, body.Cycles[0].Device)
	assert.True(t, body.Cycles[0].Replayed)

	do(h, http.MethodGet, "/api/history")
	assert.Equal(t, db.DefaultHistoryLimit, history.gotLimit)
}

func TestHistoryEmpty(t *testing.T) {
	_, h := newTestServer(&fakeHistory{}, nil)
	rec := do(h, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cycles": []}`, rec.Body.String())
}

func TestHistoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		history History
		target  string
		want    int
	}{
		{"disabled", nil, "/api/history", http.StatusServiceUnavailable},
		{"bad limit", &fakeHistory{}, "/api/history?limit=abc", http.StatusBadRequest},
		{"zero limit", &fakeHistory{}, "/api/history?limit=0", http.StatusBadRequest},
		{"limit too large", &fakeHistory{}, "/api/history?limit=5001", http.StatusBadRequest},
		{"store error", &fakeHistory{err: errors.New("locked")}, "/api/history", http.StatusInternalServerError},
		{"summary disabled", nil, "/api/summary", http.StatusServiceUnavailable},
		{"summary error", &fakeHistory{err: errors.New("locked")}, "/api/summary", http.StatusInternalServerError},
		{"chart disabled", nil, "/api/chart", http.StatusServiceUnavailable},
		{"chart bad limit", &fakeHistory{}, "/api/chart?limit=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestServer(tt.history, nil)
			rec := do(h, http.MethodGet, tt.target)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestSummary(t *testing.T) {
	history := &fakeHistory{cycles: sampleCycles()}
	_, h := newTestServer(history, nil)

	rec := do(h, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", history.gotSession)

	var s db.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, 3, s.Cycles)
	assert.Equal(t, -42.5, s.RSSIMean)

	do(h, http.MethodGet, "/api/summary?session=current")
	assert.Equal(t, "s1", history.gotSession)

	do(h, http.MethodGet, "/api/summary?session=other")
	assert.Equal(t, "other", history.gotSession)
}

func TestChart(t *testing.T) {
	_, h := newTestServer(&fakeHistory{cycles: sampleCycles()}, nil)

	rec := do(h, http.MethodGet, "/api/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "RSSI history")
	assert.Contains(t, body, "echarts")
}

func TestHistoryChartOrdersOldestFirst(t *testing.T) {
	cycles := sampleCycles()
	cycles = append(cycles, station.Cycle{Session: "s1", Paused: true, At: t0.Add(-2 * time.Second)})

	x, rssi, tone := chartSeries(cycles)
	require.Len(t, rssi, 4)
	require.Len(t, tone, 4)
	assert.Equal(t, []string{"11:59:58", "12:00:00", "12:00:02", "12:00:04"}, x)
	assert.Equal(t, "-", rssi[0].Value, "paused before any reading leaves a gap")
	assert.Equal(t, -40, rssi[1].Value)
	assert.Equal(t, -45, rssi[3].Value)
	assert.Equal(t, 3000, tone[1].Value)
}

func TestVersion(t *testing.T) {
	_, h := newTestServer(nil, nil)
	rec := do(h, http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, rec.Code)

	var got version.Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, version.Version, got.Version)
}

func TestLoggingMiddleware(t *testing.T) {
	var logged bool
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logged = true
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := do(h, http.MethodGet, "/api/status?x=1")
	assert.True(t, logged)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStatusCodeColor(t *testing.T) {
	assert.True(t, strings.Contains(statusCodeColor(200), colorBoldGreen))
	assert.True(t, strings.Contains(statusCodeColor(302), colorYellow))
	assert.True(t, strings.Contains(statusCodeColor(404), colorBoldRed))
	assert.True(t, strings.Contains(statusCodeColor(503), colorBoldRed))
	assert.Equal(t, "100", statusCodeColor(100))
}
