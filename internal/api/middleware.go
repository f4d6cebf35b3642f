package api

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/oseayemenre/pagesy-reader/internal/metrics"
	"github.com/oseayemenre/pagesy-reader/internal/session"
)

const (
	MsgLoginRequired        = "You need to be logged in to create a novel"
	MsgUnableToAuthenticate = "Unable to authenticate"
	MsgNoSession            = "No session found"
)

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriterWrapper(w http.ResponseWriter) *responseWriterWrapper {
	return &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades through the wrapper.
func (w *responseWriterWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}

	w.statusCode = http.StatusSwitchingProtocols

	return h.Hijack()
}

func (a *Api) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := newResponseWriterWrapper(w)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		a.logger.Info(
			"request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.String()),
			slog.Int("status", ww.statusCode),
			slog.String("duration", duration.String()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
	})
}

func (a *Api) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := newResponseWriterWrapper(w)

		next.ServeHTTP(ww, r)

		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (a *Api) CorsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   a.config.CorsOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// LoginURL is the login page carrying reason in its error parameter.
func LoginURL(reason string) string {
	return "/auth/login?" + url.Values{"error": {reason}}.Encode()
}

// renew reissues the cookies of a session resumed from the refresh token.
func (a *Api) renew(w http.ResponseWriter, s *session.Session) {
	if !s.Refreshed {
		return
	}

	if err := a.sessions.Issue(w, s.Actor); err != nil {
		a.logger.Warn(fmt.Sprintf("error renewing session: %v", err), "service", "middleware")
	}
}

// RequireSession sends visitors without a session to the login page before
// the wrapped handler runs.
func (a *Api) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := a.sessions.Current(r)

		if err != nil {
			a.logger.Warn(fmt.Sprintf("error checking session: %v", err), "service", "middleware")
		}

		if err != nil || s == nil {
			http.Redirect(w, r, LoginURL(MsgLoginRequired), http.StatusFound)
			return
		}

		a.renew(w, s)

		next.ServeHTTP(w, r.WithContext(session.WithActor(r.Context(), &s.Actor)))
	})
}

// Authenticate rejects requests without a session with 401.
func (a *Api) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := a.sessions.Current(r)

		if err != nil {
			a.logger.Warn(err.Error(), "status", "permission denied")
			respondWithError(w, http.StatusUnauthorized, err)
			return
		}

		if s == nil {
			respondWithError(w, http.StatusUnauthorized, fmt.Errorf("no session found"))
			return
		}

		a.renew(w, s)

		next.ServeHTTP(w, r.WithContext(session.WithActor(r.Context(), &s.Actor)))
	})
}
