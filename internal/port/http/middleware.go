package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/adapter/auth"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	idTokenHeader = "Id-Token"
)

var idTokenCookies = []string{"idToken", "id_token"}

// Authenticate verifies the caller's bearer credential and stores the subject
// under UserIDCtxKey. Requests without a valid credential get 401.
func Authenticate(verifier auth.TokenVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := credential(r)
			if raw == "" {
				writeError(w, log, entity.ErrUnauthenticated)
				return
			}
			subject, err := verifier.Verify(raw)
			if err != nil {
				log.Warnf("Rejected credential on %s %s: %v", r.Method, r.URL.Path, err)
				writeError(w, log, err)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDCtxKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credential looks for a token in the Authorization header, then the
// Id-Token header, then the idToken/id_token cookies.
func credential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if token := strings.TrimSpace(r.Header.Get(idTokenHeader)); token != "" {
		return token
	}
	for _, name := range idTokenCookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			reqLog := log.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				reqLog.Error("HTTP request failed")
			case ww.Status() >= http.StatusBadRequest:
				reqLog.Warn("HTTP request rejected")
			default:
				reqLog.Info("HTTP request completed")
			}
		})
	}
}

// Metrics records latency and error responses keyed by the matched route pattern.
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			if ww.Status() >= http.StatusBadRequest {
				m.HTTPRequestErrorsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
			}
		})
	}
}
