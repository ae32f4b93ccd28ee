package hasher

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput: bcrypt учитывает только первые 72 байта входа.
const bcryptMaxInput = 72

type Bcrypt struct {
	cost int
}

// NewBcrypt создаёт хэшер; cost <= 0 означает bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("hasher: bcrypt cost %d out of range", cost)
	}

	return &Bcrypt{cost: cost}, nil
}

// Hash хэширует пароль с помощью bcrypt.
func (b *Bcrypt) Hash(plain string) (string, error) {
	const op = "hasher.bcrypt.Hash"

	if len(plain) > bcryptMaxInput {
		return "", fmt.Errorf("%s: %w", op, ErrInputTooLong)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify сравнивает пароль с хэшем.
func (b *Bcrypt) Verify(hash, plain string) (bool, error) {
	const op = "hasher.bcrypt.Verify"

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%s: %w: %v", op, ErrMalformedHash, err)
	}
}
