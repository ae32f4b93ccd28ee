// hasher: односторонние солёные хэши для паролей и refresh-токенов.
//
// Реализации:
//   - Argon2: argon2id в формате PHC ($argon2id$v=19$m=...,t=...,p=...$salt$hash);
//   - Bcrypt: bcrypt (входы длиннее 72 байт отвергаются).
//
// Refresh-токены (JWT длиннее 72 байт) хэшируются только через Argon2.
package hasher

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedHash: сохранённый хэш не удаётся разобрать.
	ErrMalformedHash = errors.New("malformed hash")
	// ErrInputTooLong: вход превышает ограничение алгоритма.
	ErrInputTooLong = errors.New("input too long")
)

// Hasher: одностороннее хэширование с проверкой.
type Hasher interface {
	// Hash возвращает солёный хэш plain.
	Hash(plain string) (string, error)
	// Verify сообщает, соответствует ли plain ранее полученному hash.
	// Несовпадение возвращается как (false, nil), ошибка означает битый hash.
	Verify(hash, plain string) (bool, error)
}

// Алгоритмы, доступные через конфигурацию.
const (
	AlgArgon2id = "argon2id"
	AlgBcrypt   = "bcrypt"
)

// Password хэширует пароли выбранным алгоритмом, а проверяет тем, которым
// был получен сохранённый хэш (по префиксу PHC/MCF). После смены
// password_algorithm старые хэши продолжают проверяться.
type Password struct {
	primary Hasher
	argon   *Argon2
	bcrypt  *Bcrypt
}

// New создаёт хэшер паролей; alg задаёт алгоритм для новых хэшей.
func New(alg string, argon Argon2Params, bcryptCost int) (*Password, error) {
	a, err := NewArgon2(argon)
	if err != nil {
		return nil, err
	}

	b, err := NewBcrypt(bcryptCost)
	if err != nil {
		return nil, err
	}

	p := &Password{argon: a, bcrypt: b}

	switch alg {
	case AlgArgon2id, "":
		p.primary = a
	case AlgBcrypt:
		p.primary = b
	default:
		return nil, fmt.Errorf("hasher: unsupported algorithm %q", alg)
	}

	return p, nil
}

// Hash хэширует plain алгоритмом из конфигурации.
func (p *Password) Hash(plain string) (string, error) {
	return p.primary.Hash(plain)
}

// Verify выбирает алгоритм по префиксу hash.
func (p *Password) Verify(hash, plain string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$"+AlgArgon2id+"$"):
		return p.argon.Verify(hash, plain)
	case isBcryptHash(hash):
		return p.bcrypt.Verify(hash, plain)
	default:
		return false, fmt.Errorf("hasher.Verify: %w", ErrMalformedHash)
	}
}

func isBcryptHash(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}

var _ Hasher = (*Password)(nil)
