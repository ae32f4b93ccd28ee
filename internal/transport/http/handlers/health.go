package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/local-auth/internal/pkg/log"
)

// Livez: процесс жив.
func Livez(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Healthz отвечает 200, если ready() не вернул ошибку, иначе 503.
func Healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				log.From(r.Context()).Warn("readiness_failed", slog.String("err", err.Error()))
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
