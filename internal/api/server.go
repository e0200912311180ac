// Package api serves the monitor's state to the external display: decoder
// status, decoded frames, housekeeping and ingestion history, and a quick
// force chart.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/db"
	"github.com/banshee-data/grip.monitor/internal/httputil"
	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
	"github.com/banshee-data/grip.monitor/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

const (
	// One minute of 20 Hz frames.
	defaultFrameLimit = 1200
	maxFrameLimit     = 12000
	defaultRowLimit   = 50
	maxRowLimit       = 1000
)

type Server struct {
	rt *cache.RealtimeIngester
	hk *cache.HousekeepingIngester
	db *db.DB
}

// NewServer serves the state of rt and hk. database may be nil, in which
// case the history endpoints report 404.
func NewServer(rt *cache.RealtimeIngester, hk *cache.HousekeepingIngester, database *db.DB) *Server {
	return &Server{
		rt: rt,
		hk: hk,
		db: database,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
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
	mux.HandleFunc("/api/frames", s.listFrames)
	mux.HandleFunc("/api/housekeeping", s.showHousekeeping)
	mux.HandleFunc("/api/passes", s.listPasses)
	mux.HandleFunc("/api/reset", s.resetSession)
	mux.HandleFunc("/charts/forces", s.handleForceChart)
	return mux
}

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Version           string                     `json:"version"`
	SessionID         string                     `json:"session_id"`
	State             string                     `json:"state"`
	Frames            int                        `json:"frames"`
	Capacity          int                        `json:"capacity"`
	RealtimeCache     string                     `json:"realtime_cache"`
	RealtimeOffset    int64                      `json:"realtime_offset"`
	HousekeepingCache string                     `json:"housekeeping_cache"`
	MarkerVisibility  [packets.CODA_UNITS]string `json:"marker_visibility"`
	Metrics           map[string]int64           `json:"metrics"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	d := s.rt.Decoder()
	httputil.WriteJSONOK(w, StatusResponse{
		Version:           version.String(),
		SessionID:         d.SessionID(),
		State:             d.State().String(),
		Frames:            d.Buffer().Len(),
		Capacity:          d.Buffer().Cap(),
		RealtimeCache:     s.rt.Filename(),
		RealtimeOffset:    s.rt.Offset(),
		HousekeepingCache: s.hk.Filename(),
		MarkerVisibility:  d.MarkerVisibilityStrings(),
		Metrics:           monitoring.MetricsSnapshot(),
	})
}

// FramesResponse is the body of /api/frames.
type FramesResponse struct {
	SessionID string            `json:"session_id"`
	From      int               `json:"from"`
	Total     int               `json:"total"`
	Frames    []telemetry.Frame `json:"frames"`
}

// listFrames pages through the sample buffer. Without "from" it returns the
// most recent "limit" frames.
func (s *Server) listFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := intParam(r, "limit", defaultFrameLimit, maxFrameLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	d := s.rt.Decoder()
	buf := d.Buffer()
	total := buf.Len()
	from := total - limit
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = strconv.Atoi(v)
		if err != nil || from < 0 {
			httputil.BadRequest(w, "invalid 'from' parameter")
			return
		}
	}
	if from < 0 {
		from = 0
	}

	frames := buf.Frames(from, limit)
	if frames == nil {
		frames = []telemetry.Frame{}
	}
	httputil.WriteJSONOK(w, FramesResponse{
		SessionID: d.SessionID(),
		From:      from,
		Total:     total,
		Frames:    frames,
	})
}

// HousekeepingResponse is the body of /api/housekeeping.
type HousekeepingResponse struct {
	Valid     bool                 `json:"valid"`
	TMCounter uint16               `json:"tm_counter,omitempty"`
	EPMTime   float64              `json:"epm_time,omitempty"`
	Status    *telemetry.Status    `json:"status,omitempty"`
	History   []db.HousekeepingRow `json:"history,omitempty"`
}

func (s *Server) showHousekeeping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	limit, err := intParam(r, "limit", defaultRowLimit, maxRowLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	var resp HousekeepingResponse
	if snap, ok := s.hk.Latest(); ok {
		st := telemetry.DecodeStatus(snap.Status)
		resp.Valid = true
		resp.TMCounter = snap.Header.TMCounter
		resp.EPMTime = snap.Header.Seconds()
		resp.Status = &st
	}
	if s.db != nil {
		resp.History, err = s.db.RecentHousekeeping(limit)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve housekeeping history: %v", err))
			return
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) listPasses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "no history database")
		return
	}

	limit, err := intParam(r, "limit", defaultRowLimit, maxRowLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	passes, err := s.db.RecentIngestPasses(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to retrieve ingest passes: %v", err))
		return
	}
	if passes == nil {
		passes = []db.IngestPass{}
	}
	httputil.WriteJSONOK(w, passes)
}

// resetSession discards the decoded frames and rereads the realtime cache
// from its start on the next pass.
func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	previous := s.rt.Decoder().SessionID()
	s.rt.Reset()
	session := s.rt.Decoder().SessionID()
	log.Printf("decoder session %s reset; new session %s", previous, session)
	httputil.WriteJSONOK(w, map[string]string{
		"previous_session_id": previous,
		"session_id":          session,
	})
}

// intParam parses a positive integer query parameter, clamped to max.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid '%s' parameter", name)
	}
	if n > max {
		n = max
	}
	return n, nil
}
