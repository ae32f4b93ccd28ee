// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервиса/проверки токена, на выход даёт:
//   - корректный HTTP-статус;
//   - короткий стабильный code и безопасное message без утечки деталей.
//
// Ошибки входа (401) и обновления (403) имеют одинаковое message
// "access denied", различается только статус и code.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/local-auth/internal/service"
	"github.com/pribylovaa/local-auth/internal/tokens"
)

// Нестандартный код "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrBadRequest: тело запроса не разобрано (битый JSON, лишние поля).
	ErrBadRequest = errors.New("bad request")
	// ErrMissingBearer: нет заголовка Authorization: Bearer <token>.
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrNotFound: неизвестный маршрут.
	ErrNotFound = errors.New("not found")
	// ErrMethodNotAllowed: метод не поддерживается маршрутом.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIError: единый формат ошибки для клиента.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse: корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
// Неизвестные ошибки (и nil) дают 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError пишет статус и тело, добавляя request_id из X-Request-Id.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"

	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_argument", "invalid request body"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_argument", "invalid email"
	case errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, "invalid_argument", "password is empty"
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "invalid_argument", "password is too long"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"

	case errors.Is(err, service.ErrConflict):
		// Учётная запись могла остаться после сбоя выдачи токенов; пароль в ней
		// уже сохранён, поэтому клиенту достаточно войти.
		return http.StatusConflict, "already_exists", "email already registered, sign in instead"

	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized, "unauthenticated", "access denied"
	case errors.Is(err, ErrMissingBearer),
		errors.Is(err, tokens.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthenticated", "invalid token"
	case errors.Is(err, tokens.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthenticated", "token expired"

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "access denied"

	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "resource_exhausted", "too many attempts"

	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"

	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
