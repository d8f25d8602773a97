package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/ingestd/internal/logger"
	"github.com/marmos91/ingestd/pkg/api/handlers"
)

// NewRouter creates and configures the chi router for the ingest
// control surface.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - POST /v1/session/start  - start a new (or named) ingest session
//   - POST /v1/session/stop   - stop the active session
//   - GET  /v1/session/status - report the active session's counters
//   - GET  /healthz/live      - liveness probe
//   - GET  /healthz/ready     - readiness probe
func NewRouter(controller handlers.SessionController) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	sessionHandler := handlers.NewSessionHandler(controller)

	r.Route("/v1/session", func(r chi.Router) {
		r.Post("/start", sessionHandler.Start)
		r.Post("/stop", sessionHandler.Stop)
		r.Get("/status", sessionHandler.Status)
	})

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", sessionHandler.Live)
		r.Get("/ready", sessionHandler.Ready)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
