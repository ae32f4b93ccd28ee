package models

import "time"

// TokenPair: пара токенов, выдаваемая при регистрации, входе и обновлении.
//
// Описание:
//   - AccessToken: короткоживущий JWT для доступа к API;
//   - RefreshToken: долгоживущий JWT для выпуска новой пары; на сервере
//     хранится только его хэш, прикреплённый к пользователю;
//   - AccessExpiresAt/RefreshExpiresAt: моменты истечения (UTC).
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims: данные, извлечённые из проверенного токена.
type Claims struct {
	UserID    int64
	Email     string
	TokenID   string
	ExpiresAt time.Time
}
