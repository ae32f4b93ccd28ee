package models

import "time"

// User: учётная запись с локальными учётными данными.
//
// RefreshTokenHash пустой, если у пользователя нет активной сессии
// (ещё не выдавались токены или выполнен logout).
type User struct {
	ID               int64
	Email            string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSession сообщает, хранится ли у пользователя хэш refresh-токена.
func (u *User) HasSession() bool {
	return u.RefreshTokenHash != ""
}
