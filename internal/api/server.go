// Package api serves the station's JSON API and history chart.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/db"
	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/serialmux"
	"github.com/banshee-data/groundstation/internal/station"
	"github.com/banshee-data/groundstation/internal/version"
)

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Controller is the part of a station the API reads and presses.
type Controller interface {
	Status() station.Status
	TogglePause() bool
	ToggleOutput() audio.Device
}

// History is the cycle store behind /api/history, /api/summary and
// /api/chart.
type History interface {
	RecentCycles(ctx context.Context, limit int) ([]station.Cycle, error)
	Summary(ctx context.Context, session string) (db.Summary, error)
}

type Server struct {
	station Controller
	history History
	link    serialmux.LinkInterface
}

// NewServer builds a Server. history may be nil when the station runs
// without a database; link may be nil when serial is disabled.
func NewServer(st Controller, history History, link serialmux.LinkInterface) *Server {
	return &Server{station: st, history: history, link: link}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/history", s.listHistory)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/api/chart", s.showChart)
	mux.HandleFunc("/api/pause", s.pressPause)
	mux.HandleFunc("/api/output", s.pressOutput)
	mux.HandleFunc("/api/version", s.showVersion)
	return mux
}

type statusResponse struct {
	station.Status
	Serial *serialmux.Stats `json:"serial,omitempty"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	resp := statusResponse{Status: s.station.Status()}
	if s.link != nil {
		stats := s.link.Stats()
		resp.Serial = &stats
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.history == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "history database disabled")
		return false
	}
	return true
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) || !s.requireHistory(w) {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", db.DefaultHistoryLimit, 1, db.MaxHistoryLimit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	cycles, err := s.history.RecentCycles(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to read history: "+err.Error())
		return
	}
	if cycles == nil {
		cycles = []station.Cycle{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"cycles": cycles})
}

// showSummary aggregates ?session=ID, the running session for
// ?session=current, or everything when the parameter is absent.
func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) || !s.requireHistory(w) {
		return
	}
	session := r.URL.Query().Get("session")
	if session == "current" {
		session = s.station.Status().Session
	}
	summary, err := s.history.Summary(r.Context(), session)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, "failed to summarise history: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, summary)
}

func (s *Server) pressPause(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	httputil.WriteJSONOK(w, map[string]bool{"paused": s.station.TogglePause()})
}

func (s *Server) pressOutput(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodPost) {
		return
	}
	httputil.WriteJSONOK(w, map[string]audio.Device{"output": s.station.ToggleOutput()})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	httputil.WriteJSONOK(w, version.Get())
}
