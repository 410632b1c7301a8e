package middleware

import (
	"net/http"
	"time"

	"pokertable/internal/metrics"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Metrics records the method, status and latency of every request
func Metrics(recorder metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPRequest(r.Method, status, time.Since(start))
		})
	}
}
