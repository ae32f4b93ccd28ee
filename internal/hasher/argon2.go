package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params: параметры argon2id.
type Argon2Params struct {
	Memory      uint32 `yaml:"memory" env:"ARGON2_MEMORY" env-default:"65536"`
	Time        uint32 `yaml:"time" env:"ARGON2_TIME" env-default:"3"`
	Parallelism uint8  `yaml:"parallelism" env:"ARGON2_PARALLELISM" env-default:"2"`
	SaltLength  uint32 `yaml:"salt_length" env:"ARGON2_SALT_LENGTH" env-default:"16"`
	KeyLength   uint32 `yaml:"key_length" env:"ARGON2_KEY_LENGTH" env-default:"32"`
}

// DefaultArgon2Params: рекомендованные OWASP параметры (64 MiB, t=3).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type Argon2 struct {
	params Argon2Params
}

// NewArgon2 проверяет параметры и создаёт хэшер.
// Нулевые параметры заменяются на DefaultArgon2Params.
func NewArgon2(p Argon2Params) (*Argon2, error) {
	if p == (Argon2Params{}) {
		p = DefaultArgon2Params()
	}

	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return nil, errors.New("hasher: argon2 memory, time and parallelism must be positive")
	}

	if p.SaltLength < 8 || p.KeyLength < 16 {
		return nil, errors.New("hasher: argon2 salt must be >= 8 bytes and key >= 16 bytes")
	}

	return &Argon2{params: p}, nil
}

// Hash хэширует plain со случайной солью.
func (a *Argon2) Hash(plain string) (string, error) {
	const op = "hasher.argon2.Hash"

	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := argon2.IDKey([]byte(plain), salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.Memory, a.params.Time, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify пересчитывает ключ с параметрами из hash и сравнивает за константное время.
func (a *Argon2) Verify(hash, plain string) (bool, error) {
	const op = "hasher.argon2.Verify"

	p, salt, key, err := decodePHC(hash)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	candidate := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodePHC(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgArgon2id {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, ErrMalformedHash
	}

	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
