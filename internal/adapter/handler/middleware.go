package handler

import (
	"net/http"
	"time"
)

// HTTPMetrics is the slice of the metrics sink the middleware needs.
type HTTPMetrics interface {
	ObserveHTTPRequest(method, route string, status int, seconds float64)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithMetrics records request latency labeled by method, the registered route
// and the response status.
func WithMetrics(m HTTPMetrics, route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.ObserveHTTPRequest(r.Method, route, rec.status, time.Since(start).Seconds())
	})
}
