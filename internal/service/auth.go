package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/local-auth/internal/limiter"
	"github.com/pribylovaa/local-auth/internal/models"
	"github.com/pribylovaa/local-auth/internal/pkg/log"
	"github.com/pribylovaa/local-auth/internal/pkg/redact"
	"github.com/pribylovaa/local-auth/internal/storage"
)

// SignUp регистрирует пользователя и сразу выдаёт ему пару токенов.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.SignUp"

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, normEmail, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_signed_up",
		slog.Int64("user_id", user.ID),
		slog.String("email", redact.Email(user.Email)),
	)

	return pair, nil
}

// SignIn выполняет вход по email и паролю.
// Неизвестный email и неверный пароль дают одну и ту же ErrAuth.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "service.SignIn"

	// Пароль вне политики регистрации не может совпасть ни с одним хэшем.
	normEmail, err := normalizeEmail(email)
	if err != nil || validatePassword(password) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}

	if err := s.checkLimiter(ctx, normEmail); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.UserByEmail(ctx, normEmail)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		// Выравниваем время ответа с веткой проверки пароля.
		_, _ = s.passwords.Verify(s.dummyPasswordHash(), password)
		s.recordFailure(ctx, normEmail)

		return nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		s.recordFailure(ctx, normEmail)
		return nil, fmt.Errorf("%s: %w", op, ErrAuth)
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, normEmail); err != nil {
			log.From(ctx).Warn("login_limiter_reset_failed", slog.String("err", err.Error()))
		}
	}

	log.From(ctx).Info("user_signed_in", slog.Int64("user_id", user.ID))

	return pair, nil
}

// SignOut завершает сессию: сохранённый хэш refresh-токена обнуляется.
// Повторный вызов и неизвестный userID ошибкой не являются.
func (s *Service) SignOut(ctx context.Context, userID int64) error {
	const op = "service.SignOut"

	if err := s.users.ClearRefreshTokenHash(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_signed_out", slog.Int64("user_id", userID))

	return nil
}

// RefreshTokens выдаёт новую пару, если presented совпадает с последним
// выданным пользователю refresh-токеном. Старый токен после этого
// недействителен, даже если его срок ещё не истёк.
//
// Подпись и срок presented проверяет транспорт до вызова.
func (s *Service) RefreshTokens(ctx context.Context, userID int64, presented string) (*models.TokenPair, error) {
	const op = "service.RefreshTokens"

	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.HasSession() || presented == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	ok, err := s.refreshHashes.Verify(user.RefreshTokenHash, presented)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		log.From(ctx).Warn("refresh_token_mismatch", slog.Int64("user_id", user.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Debug("tokens_rotated", slog.Int64("user_id", user.ID))

	return pair, nil
}

// issueTokens подписывает новую пару и перезаписывает хэш refresh-токена
// пользователя. Пара возвращается только после успешной записи.
func (s *Service) issueTokens(ctx context.Context, userID int64, email string) (*models.TokenPair, error) {
	const op = "service.issueTokens"

	pair, err := s.signer.Issue(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.refreshHashes.Hash(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.SetRefreshTokenHash(ctx, userID, hash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// checkLimiter пропускает вход при недоступном лимитере (fail-open),
// но отказывает, если email заблокирован.
func (s *Service) checkLimiter(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}

	err := s.limiter.Check(ctx, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiter.ErrLocked):
		log.From(ctx).Warn("login_locked", slog.String("email", redact.Email(key)))
		return ErrTooManyAttempts
	default:
		log.From(ctx).Warn("login_limiter_unavailable", slog.String("err", err.Error()))
		return nil
	}
}

func (s *Service) recordFailure(ctx context.Context, key string) {
	if s.limiter == nil {
		return
	}

	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		log.From(ctx).Warn("login_limiter_record_failed", slog.String("err", err.Error()))
	}
}

// dummyPasswordHash: хэш-заглушка для ветки "пользователь не найден".
func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.passwords.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})

	return s.dummyHash
}
