package service

import (
	"fmt"
	"net/mail"
	"strings"
)

// MaxPasswordBytes: верхняя граница длины пароля в байтах (предел bcrypt).
const MaxPasswordBytes = 72

// normalizeEmail проверяет email и приводит его к каноничному виду:
// без пробелов по краям, в нижнем регистре. Допускается только голый
// адрес, без отображаемого имени ("Bob <bob@x.com>").
func normalizeEmail(raw string) (string, error) {
	const op = "service.normalizeEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет пароль при регистрации.
func validatePassword(pw string) error {
	const op = "service.validatePassword"

	if pw == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len(pw) > MaxPasswordBytes {
		return fmt.Errorf("%s: %w", op, ErrPasswordTooLong)
	}

	return nil
}
