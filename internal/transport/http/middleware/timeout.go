package middleware

import (
	"net/http"
	"time"

	"github.com/pribylovaa/local-auth/internal/pkg/deadline"
)

// Timeout ограничивает обработку запроса временем d (см. deadline.Ensure).
// Истёкший дедлайн превращается в 504 на уровне маппинга ошибок.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := deadline.Ensure(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
