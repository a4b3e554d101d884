package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type metrics struct {
	requests    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
	reports     *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tco_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tco_evaluations_total",
			Help: "Completed evaluations by recommended architecture.",
		}, []string{"recommended"}),
		reports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tco_reports_rendered_total",
			Help: "Rendered reports by format.",
		}, []string{"format"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tco_request_errors_total",
			Help: "Failed requests by error code.",
		}, []string{"code"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		s.serveRecovered(rec, r, next)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := r.URL.Path
		switch route {
		case "/v1/health", "/v1/vendors", "/v1/evaluate", "/v1/report", "/metrics":
		default:
			route = "other"
		}
		s.metrics.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())
		if route == "/metrics" || route == "/v1/health" {
			return
		}
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", elapsed),
		)
	})
}

// serveRecovered turns a handler panic into a 500 envelope instead of a
// dropped connection.
func (s *Server) serveRecovered(rec *statusRecorder, r *http.Request, next http.Handler) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler {
			panic(v)
		}
		s.logger.Error("handler panic",
			zap.String("path", r.URL.Path),
			zap.Any("panic", v),
			zap.Stack("stack"),
		)
		s.metrics.errors.WithLabelValues(codeInternal).Inc()
		if rec.status == 0 {
			writeJSON(rec, http.StatusInternalServerError, map[string]any{
				"ok":    false,
				"error": map[string]any{"code": codeInternal, "message": "internal error"},
			})
		}
	}()
	next.ServeHTTP(rec, r)
}
