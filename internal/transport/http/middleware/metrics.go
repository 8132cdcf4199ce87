package middleware

import (
	"net/http"
	"time"
)

type Recorder interface {
	Record(status int, duration time.Duration)
}

func Metrics(recorder Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			status := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(status, r)
			recorder.Record(status.status, time.Since(start))
		})
	}
}
