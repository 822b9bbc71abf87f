package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ecomap/pkg/logger"
	"github.com/okian/ecomap/pkg/metrics"
)

// Instrument records request count, latency and failures for one route.
// Failures are counted under the same class the error body reports.
func Instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	log := logger.Get().Named("http")
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		elapsedMs := float64(time.Since(started).Microseconds()) / 1000
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, elapsedMs)

		class := failureClass(rec.status)
		if class == "" {
			return
		}
		metrics.RecordErrorByEndpoint(route, r.Method, class)
		log.Debug(r.Context(), "request failed",
			logger.String("route", route),
			logger.String("method", r.Method),
			logger.Int("status", rec.status),
			logger.String("class", class),
			logger.Float64("elapsed_ms", elapsedMs),
		)
	}
}

// failureClass names the failure behind status, or "" for success.
func failureClass(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return ""
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "internal"
	default:
		return "bad_request"
	}
}

// statusRecorder remembers the status a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
