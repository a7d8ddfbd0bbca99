// minber/handlers/middleware.go

package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"minber/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// NewStructuredLogger logs every request through slog once the
// response is written.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote", utils.GetIPAddress(r),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// RateLimit throttles requests per client IP. Applied to write routes only.
func RateLimit(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.GetIPAddress(r)
			if !app.RateLimiter().GetLimiter(ip).Allow() {
				app.Logger().Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
				respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates moderation routes behind a shared token.
func RequireAdmin(app App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			expected := app.AdminToken()
			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				respondJSON(w, http.StatusForbidden, map[string]string{"error": "Admin access required"}, app)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
