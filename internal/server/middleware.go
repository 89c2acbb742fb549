package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/handlers"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// withMiddleware wraps the router with middleware chain
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	handler = s.recoveryMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return handler
}

// withConditionalMiddleware applies middleware but bypasses it for the live-state socket
func (s *Server) withConditionalMiddleware(handler http.Handler) http.Handler {
	wrapped := s.withMiddleware(handler)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			setCORSHeaders(w)
			handler.ServeHTTP(w, r)
			return
		}
		wrapped.ServeHTTP(w, r)
	})
}

// requestIDMiddleware echoes the caller's request id or assigns a new one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// operationFor names the dashboard operation a request performs, for log correlation.
func operationFor(r *http.Request) string {
	path := r.URL.Path
	switch {
	case path == "/":
		return "dashboard_page"
	case path == "/api/prediction/refresh":
		return "forecast_refresh"
	case path == "/api/prediction":
		return "forecast_snapshot"
	case strings.HasPrefix(path, "/api/history/"):
		return "history_" + strings.TrimPrefix(path, "/api/history/")
	case strings.HasPrefix(path, "/api/scheduler/"):
		return "scheduler"
	default:
		return "api"
	}
}

// loggingMiddleware logs each request with its dashboard operation.
// Forecast refreshes and server errors are logged above debug level.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		operation := operationFor(r)
		isRefresh := operation == "forecast_refresh" && r.Method == http.MethodPost

		withFields := func(event arbor.ILogEvent) arbor.ILogEvent {
			event = event.
				Str("request_id", r.Header.Get(RequestIDHeader)).
				Str("operation", operation).
				Str("method", r.Method).
				Str("path", r.URL.Path)
			if isRefresh {
				event = event.Bool("force_refresh", handlers.QueryBool(r, "force", false))
			}
			return event
		}

		withFields(s.app.Logger.Debug()).Str("remote", r.RemoteAddr).Msg("HTTP request")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		var event arbor.ILogEvent
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			event = s.app.Logger.Warn()
		case isRefresh:
			event = s.app.Logger.Info()
		default:
			event = s.app.Logger.Debug()
		}
		withFields(event).
			Int("status", rw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP response")
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	// Allow all origins for local development
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
	w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
}

// corsMiddleware handles CORS headers and preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a 500 and keeps the dashboard serving.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.app.Logger.Error().
					Str("request_id", r.Header.Get(RequestIDHeader)).
					Str("operation", operationFor(r)).
					Str("error", fmt.Sprintf("%v", err)).
					Msg("Panic recovered")

				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for logging
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for the websocket upgrade
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("responseWriter does not implement http.Hijacker")
}
