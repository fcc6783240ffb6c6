package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/alanyoungcy/domainmart/internal/service"
)

// AuthService is what the account handlers need from the auth service.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Me(ctx context.Context, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (domain.User, error)
	ListUsers(ctx context.Context, opts domain.ListOpts) (service.Page[domain.User], error)
	SetRole(ctx context.Context, actor, userID string, role domain.Role) (domain.User, error)
	DeleteUser(ctx context.Context, actor, userID string) error
}

// AuthHandler serves sign-up, sign-in, profiles and back-office user
// management.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logHandler(logger, "auth")}
}

// Register creates an account and returns a token.
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "register", err)
		return
	}
	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "login", err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Me returns the signed-in user.
// GET /api/auth/me, GET /api/me/profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context(), caller(r).Subject)
	if err != nil {
		writeServiceError(w, r, h.logger, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile edits the signed-in user's name and password.
// PUT /api/me/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeServiceError(w, r, h.logger, "update profile", err)
		return
	}
	u, err := h.auth.UpdateProfile(r.Context(), caller(r).Subject, in)
	if err != nil {
		writeServiceError(w, r, h.logger, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListUsers pages through accounts.
// GET /api/admin/users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.auth.ListUsers(r.Context(), parseListOpts(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "list users", err)
		return
	}
	if page.Items == nil {
		page.Items = []domain.User{}
	}
	writeJSON(w, http.StatusOK, page)
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole promotes or demotes a user.
// PUT /api/admin/users/{id}/role
func (h *AuthHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "set role", err)
		return
	}
	u, err := h.auth.SetRole(r.Context(), caller(r).Subject, pathParam(r, "id"), domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, h.logger, "set role", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser removes an account.
// DELETE /api/admin/users/{id}
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteUser(r.Context(), caller(r).Subject, pathParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
