// service содержит бизнес-логику аутентификации по локальным учётным данным:
// регистрацию, вход, выход и ротацию пары токенов.
//
// Основные аспекты:
//   - Service не хранит состояние запроса и безопасен для конкурентного
//     использования при условии, что переданные зависимости потокобезопасны;
//   - Все зависимости (хранилище, подписчик токенов, хэшеры, лимитер)
//     передаются через конструктор;
//   - Ошибки возвращаются обёрнутыми ("op: err") и маппятся транспортом
//     по errors.Is (см. комментарии к переменным ниже).
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pribylovaa/local-auth/internal/hasher"
	"github.com/pribylovaa/local-auth/internal/models"
	"github.com/pribylovaa/local-auth/internal/storage"
)

var (
	// ErrValidation: входные данные не прошли проверку. HTTP 400.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidEmail: пустой или синтаксически некорректный email.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email", ErrValidation)

	// ErrEmptyPassword: пустой пароль.
	ErrEmptyPassword = fmt.Errorf("%w: password is empty", ErrValidation)

	// ErrPasswordTooLong: пароль длиннее MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("%w: password is too long", ErrValidation)

	// ErrConflict: email уже зарегистрирован. HTTP 409.
	ErrConflict = errors.New("email already registered")

	// ErrAuth: неверная пара email/пароль. Неизвестный email и неверный
	// пароль неразличимы. HTTP 401.
	ErrAuth = errors.New("access denied")

	// ErrForbidden: refresh-токен не совпадает с сохранённым, сессия
	// завершена или пользователь отсутствует. HTTP 403.
	ErrForbidden = errors.New("access denied")

	// ErrTooManyAttempts: email временно заблокирован после серии
	// неудачных входов. HTTP 429.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// Signer выпускает пару токенов для пользователя.
type Signer interface {
	Issue(ctx context.Context, userID int64, email string) (*models.TokenPair, error)
}

// LoginLimiter считает неудачные входы. Ключом служит нормализованный email.
type LoginLimiter interface {
	Check(ctx context.Context, key string) error
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Service описывает бизнес-логику аутентификации.
type Service struct {
	users         storage.UserStorage
	signer        Signer
	passwords     hasher.Hasher
	refreshHashes hasher.Hasher
	limiter       LoginLimiter // может быть nil

	dummyOnce sync.Once
	dummyHash string
}

// Option настраивает Service.
type Option func(*Service)

// WithLimiter подключает лимитер неудачных входов.
func WithLimiter(l LoginLimiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// New создаёт новый экземпляр Service.
//
// passwords хэширует пароли, refreshHashes хэширует refresh-токены. Для токенов
// нужен хэшер без ограничения длины входа (argon2id).
func New(users storage.UserStorage, signer Signer, passwords, refreshHashes hasher.Hasher, opts ...Option) *Service {
	s := &Service{
		users:         users,
		signer:        signer,
		passwords:     passwords,
		refreshHashes: refreshHashes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
