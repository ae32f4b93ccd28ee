package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/local-auth/internal/transport/http/errors"
	"github.com/pribylovaa/local-auth/internal/transport/http/middleware"
)

// SignUp: POST /auth/signup.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var in CredentialsRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, err := h.auth.SignUp(r.Context(), in.Email, in.Password)
	h.outcome("signup", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse(pair))
}

// SignIn: POST /auth/login.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var in CredentialsRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, err := h.auth.SignIn(r.Context(), in.Email, in.Password)
	h.outcome("login", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

// SignOut: POST /auth/logout, требует access-токен.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrMissingBearer)
		return
	}

	err := h.auth.SignOut(r.Context(), claims.UserID)
	h.outcome("logout", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refresh: POST /auth/refresh, требует refresh-токен в Authorization.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrMissingBearer)
		return
	}

	pair, err := h.auth.RefreshTokens(r.Context(), claims.UserID, middleware.TokenFrom(r.Context()))
	h.outcome("refresh", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse(pair))
}

// Me: GET /auth/me, возвращает владельца access-токена.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrMissingBearer)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{UserID: claims.UserID, Email: claims.Email})
}
