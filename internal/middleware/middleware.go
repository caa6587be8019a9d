// Package middlewareinternal provides HTTP middleware for the metrics API.
package middlewareinternal

import (
	"compress/flate"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// compressedTypes are the content types the API answers with.
var compressedTypes = []string{"application/json", "text/plain"}

// LoggingMiddleware logs one line per request with its id, status, size and
// latency. A handler that writes nothing is logged as 200, which is what the
// server sends for it.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.Infow("request",
					"request_id", middleware.GetReqID(r.Context()),
					"uri", r.RequestURI,
					"method", r.Method,
					"remote_ip", r.RemoteAddr,
					"status", status,
					"duration", time.Since(start),
					"size", ww.BytesWritten(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// GzipMiddleware compresses JSON and plain text responses for clients that
// accept gzip or deflate.
func GzipMiddleware(next http.Handler) http.Handler {
	return middleware.NewCompressor(flate.BestSpeed, compressedTypes...).Handler(next)
}
