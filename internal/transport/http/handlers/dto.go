package handlers

import "github.com/pribylovaa/local-auth/internal/models"

// CredentialsRequest: тело /auth/signup и /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse: пара токенов; моменты истечения в Unix UTC.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// MeResponse: данные владельца access-токена.
type MeResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func tokenResponse(p *models.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  p.AccessExpiresAt.Unix(),
		RefreshExpiresAt: p.RefreshExpiresAt.Unix(),
	}
}
