package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/local-auth/internal/models"
	apierrors "github.com/pribylovaa/local-auth/internal/transport/http/errors"
)

// maxBodyBytes: предел размера JSON-тела запроса.
const maxBodyBytes = 1 << 20

// AuthService: операции, которые транспорт вызывает у бизнес-слоя.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*models.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*models.TokenPair, error)
	SignOut(ctx context.Context, userID int64) error
	RefreshTokens(ctx context.Context, userID int64, presented string) (*models.TokenPair, error)
}

// OutcomeRecorder учитывает исходы операций (см. metrics.Metrics).
type OutcomeRecorder interface {
	Outcome(op, outcome string)
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	auth    AuthService
	metrics OutcomeRecorder
}

// New создаёт обработчики. rec может быть nil.
func New(auth AuthService, rec OutcomeRecorder) *Handlers {
	return &Handlers{auth: auth, metrics: rec}
}

func (h *Handlers) outcome(op string, err error) {
	if h.metrics == nil {
		return
	}

	if err == nil {
		h.metrics.Outcome(op, "ok")
		return
	}

	_, resp := apierrors.ToHTTP(err)
	h.metrics.Outcome(op, resp.Error.Code)
}

// writeJSON: ответ JSON с нужным Content-Type.
// Ошибки выводятся через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict: строгий JSON-декодер: неизвестные поля, хвост после
// объекта и тело больше maxBodyBytes отклоняются.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", apierrors.ErrBadRequest, err)
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data", apierrors.ErrBadRequest)
	}

	return nil
}
