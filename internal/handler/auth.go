package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/model"
	"github.com/sakif/blog-backend/internal/service"
)

// AuthService is the subset of service.AuthService the handlers call.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.PublicUser, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	GetCurrentUser(ctx context.Context, userID string) (*model.PublicUser, error)
	RefreshToken(ctx context.Context, userID string) (string, error)
	Logout(ctx context.Context, userID string) error
}

// TokenResponse is the body of POST /auth/refresh.
type TokenResponse struct {
	Token string `json:"token"`
}

// AuthHandler serves the /auth routes.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleLogin    → exchange credentials for a token
//   - HandleMe       → return the caller's profile
//   - HandleRefresh  → issue a fresh token
//   - HandleLogout   → acknowledge logout
//
// The last three are IdentityHandlerFuncs and are mounted behind auth.Guard.
type AuthHandler struct {
	svc    AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email": "a@example.com", "password": "secret123"}
// RESPONSE: 201 {"id": "...", "email": "a@example.com", "createdAt": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateCredentials(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /auth/login
// RESPONSE: 200 {"token": "<jwt>", "user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateCredentials(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("login rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleMe returns the caller's profile.
//
// HTTP: GET /auth/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	user, err := h.svc.GetCurrentUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleRefresh issues a new token for the caller.
//
// HTTP: POST /auth/refresh
// Auth: Required
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	token, err := h.svc.RefreshToken(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleLogout acknowledges a logout.
//
// HTTP: POST /auth/logout
// Auth: Required
//
// Nothing is revoked: the token stays valid until it expires. Clients are
// expected to discard it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := h.svc.Logout(r.Context(), id.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
