package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/laneguard/internal/httputil"
	"github.com/banshee-data/laneguard/internal/ledger"
	"github.com/banshee-data/laneguard/internal/monitoring"
	"github.com/banshee-data/laneguard/internal/report"
	"github.com/banshee-data/laneguard/internal/version"
	"github.com/banshee-data/laneguard/internal/violation"
)

// ANSI escape codes for request log colouring
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the session ledger and monitor state over HTTP: listing,
// exports, reset, and metrics. Exports snapshot the ledger and never mutate it.
type Server struct {
	monitor *violation.Monitor
	ledger  *ledger.Ledger
}

// NewServer creates an API server over the given monitor and ledger.
func NewServer(monitor *violation.Monitor, led *ledger.Ledger) *Server {
	return &Server{monitor: monitor, ledger: led}
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
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method, r.URL.Path,
			time.Since(start).Milliseconds(),
		)
	})
}

// Handler returns the routed HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/violations", s.handleViolations)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/export/csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export/report", s.handleExportReport)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.Handle("GET /metrics", promhttp.Handler())
	return LoggingMiddleware(mux)
}

func (s *Server) handleViolations(w http.ResponseWriter, r *http.Request) {
	records := s.ledger.Records()
	if records == nil {
		records = []ledger.ViolationRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     s.ledger.RunID(),
		"violations": records,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  s.ledger.RunID(),
		"version": version.String(),
		"monitor": s.monitor.Stats(),
		"ledger":  s.ledger.Len(),
		"summary": report.Summarise(s.ledger.Records()),
	})
}

// handleExportCSV streams the tabular export. The export is rendered into a
// buffer first so a serialisation failure yields a clean 500 instead of a
// truncated download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.ledger.WriteCSV(&buf); err != nil {
		monitoring.Logf("csv export failed: %v", err)
		httputil.InternalServerError(w, fmt.Sprintf("export failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=violations-%s.csv", s.ledger.RunID()))
	w.Write(buf.Bytes())
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, s.ledger.Records()); err != nil {
		monitoring.Logf("xlsx export failed: %v", err)
		httputil.InternalServerError(w, fmt.Sprintf("export failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=violations-%s.xlsx", s.ledger.RunID()))
	w.Write(buf.Bytes())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	bucket := time.Minute
	if b := r.URL.Query().Get("bucket"); b != "" {
		d, err := time.ParseDuration(b)
		if err != nil || d <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid bucket %q", b))
			return
		}
		bucket = d
	}

	var buf bytes.Buffer
	if err := report.WriteTimelineChart(&buf, s.ledger.Records(), bucket); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("chart failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleReset clears the in-memory run: monitor state and ledger. Durable
// rows in the violations database are kept; they belong to past runs.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.monitor.Reset()
	s.ledger.Reset()
	monitoring.Logf("session reset, new run %s", s.ledger.RunID())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"run_id": s.ledger.RunID(),
	})
}
