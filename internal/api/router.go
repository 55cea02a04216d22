// Package api exposes the retrieval service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned to the request by the router, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware tags each request with an id, reusing the caller's
// X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", RequestID(r.Context()),
			)
		})
	}
}

// NewRouter creates and configures the HTTP router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(h.logger))

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.HandleStats).Methods(http.MethodGet)

	r.HandleFunc("/documents", h.HandleUpload).Methods(http.MethodPost)
	r.HandleFunc("/documents", h.HandleListDocuments).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}", h.HandleGetDocument).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}/context", h.HandleContext).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id:[0-9]+}/answer", h.HandleAnswer).Methods(http.MethodPost)

	r.HandleFunc("/questions", h.HandleQuestions).Methods(http.MethodGet)
	r.HandleFunc("/reindex", h.HandleReindex).Methods(http.MethodPost)

	// Middleware registered with Use does not run for unmatched requests.
	unmatched := func(status int, msg string) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			h.sendError(w, r, status, fmt.Errorf("%s: %s %s", msg, r.Method, r.URL.Path))
		}
		return requestIDMiddleware(loggingMiddleware(h.logger)(http.HandlerFunc(fn)))
	}
	r.NotFoundHandler = unmatched(http.StatusNotFound, "no such route")
	r.MethodNotAllowedHandler = unmatched(http.StatusMethodNotAllowed, "method not allowed")

	return r
}
