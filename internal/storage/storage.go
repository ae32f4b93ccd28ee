// storage задаёт контракт хранилища учётных записей и общие ошибки,
// которые возвращают все реализации (postgres, memory).
package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/local-auth/internal/models"
)

var (
	// ErrNotFound: пользователь не найден.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists: нарушение уникальности email.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// CreateUser создаёт пользователя и возвращает запись с присвоенным ID.
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id int64) (*models.User, error)
	// SetRefreshTokenHash перезаписывает хэш refresh-токена пользователя.
	SetRefreshTokenHash(ctx context.Context, id int64, hash string) error
	// ClearRefreshTokenHash обнуляет хэш refresh-токена. Отсутствие
	// пользователя ошибкой не считается.
	ClearRefreshTokenHash(ctx context.Context, id int64) error
}

// Storage: хранилище с управлением жизненным циклом.
type Storage interface {
	UserStorage
	Ping(ctx context.Context) error
	Close()
}
