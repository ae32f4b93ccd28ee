// memory: потокобезопасное in-memory хранилище пользователей.
// Используется для локального запуска (storage.driver: memory) и в тестах;
// данные живут только в памяти процесса.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pribylovaa/local-auth/internal/models"
	"github.com/pribylovaa/local-auth/internal/storage"
)

type Storage struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*models.User
	byEmail map[string]int64
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		byID:    make(map[int64]*models.User),
		byEmail: make(map[string]int64),
	}
}

// CreateUser создаёт пользователя; email сравнивается без учёта регистра.
func (s *Storage) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	const op = "storage.memory.CreateUser"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.byEmail[key]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	s.nextID++
	now := time.Now().UTC()
	u := &models.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.byID[u.ID] = u
	s.byEmail[key] = u.ID

	clone := *u
	return &clone, nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.memory.UserByEmail"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	clone := *s.byID[id]
	return &clone, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.memory.UserByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	clone := *u
	return &clone, nil
}

// SetRefreshTokenHash перезаписывает хэш refresh-токена.
func (s *Storage) SetRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	const op = "storage.memory.SetRefreshTokenHash"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	u.RefreshTokenHash = hash
	u.UpdatedAt = time.Now().UTC()

	return nil
}

// ClearRefreshTokenHash обнуляет хэш refresh-токена.
func (s *Storage) ClearRefreshTokenHash(ctx context.Context, id int64) error {
	const op = "storage.memory.ClearRefreshTokenHash"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.byID[id]; ok && u.RefreshTokenHash != "" {
		u.RefreshTokenHash = ""
		u.UpdatedAt = time.Now().UTC()
	}

	return nil
}

// Ping всегда успешен.
func (s *Storage) Ping(ctx context.Context) error { return ctx.Err() }

// Close ничего не делает.
func (s *Storage) Close() {}

var _ storage.Storage = (*Storage)(nil)
