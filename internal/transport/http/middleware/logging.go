package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/local-auth/internal/pkg/log"
)

// Logging кладёт request-scoped логгер в контекст и пишет одну запись
// "http" на запрос. Ставится после RequestID.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(HeaderRequestID); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			r = r.WithContext(log.Into(r.Context(), reqLogger))

			rm := wrapResponse(w)
			start := time.Now()

			next.ServeHTTP(rm, r)

			level := slog.LevelInfo
			if rm.StatusCode() >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			reqLogger.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rm.StatusCode()),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", rm.size),
			)
		})
	}
}
