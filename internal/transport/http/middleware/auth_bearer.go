package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/local-auth/internal/models"
	"github.com/pribylovaa/local-auth/internal/pkg/log"
	apierrors "github.com/pribylovaa/local-auth/internal/transport/http/errors"
)

// TokenVerifier проверяет подпись и срок токенов.
type TokenVerifier interface {
	ParseAccess(token string) (*models.Claims, error)
	ParseRefresh(token string) (*models.Claims, error)
}

type (
	claimsKey struct{}
	tokenKey  struct{}
)

// RequireAccess пропускает запрос только с валидным access-токеном
// в Authorization: Bearer. Иначе 401.
func RequireAccess(v TokenVerifier) Middleware {
	return requireBearer(v.ParseAccess)
}

// RequireRefresh: то же для refresh-токена.
func RequireRefresh(v TokenVerifier) Middleware {
	return requireBearer(v.ParseRefresh)
}

func requireBearer(parse func(string) (*models.Claims, error)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, apierrors.ErrMissingBearer)
				return
			}

			claims, err := parse(raw)
			if err != nil {
				log.From(r.Context()).Debug("bearer_rejected", slog.String("err", err.Error()))
				apierrors.WriteError(w, r, fmt.Errorf("middleware.requireBearer: %w", err))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = context.WithValue(ctx, tokenKey{}, raw)
			ctx = log.Into(ctx, log.From(ctx).With(slog.Int64("user_id", claims.UserID)))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom возвращает claims, положенные RequireAccess/RequireRefresh.
func ClaimsFrom(ctx context.Context) (*models.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*models.Claims)
	return c, ok && c != nil
}

// TokenFrom возвращает "сырой" проверенный bearer-токен.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "bearer "

	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
