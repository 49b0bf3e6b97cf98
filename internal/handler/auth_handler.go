package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/middleware"
	"mitaict-site/internal/observability"
	"mitaict-site/internal/service"
)

// AuthHandler handles admin authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the OAuth authorization code.
type GoogleLoginRequest struct {
	Code string `json:"code"`
}

// TokenResponse is returned by both login endpoints.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AdminResponse is the public view of an admin.
type AdminResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	AuthMethod string `json:"auth_method,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		observability.AdminLoginsTotal.WithLabelValues(domain.AuthMethodPassword, "failure").Inc()
		observability.FromContext(r.Context()).Warn("admin login rejected", slog.String("username", req.Username))
		respondError(w, r, err, "Failed to log in")
		return
	}
	observability.AdminLoginsTotal.WithLabelValues(domain.AuthMethodPassword, "success").Inc()

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: session.Token, TokenType: "bearer"})
}

// GoogleLogin exchanges a Google authorization code for a session.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.authService.FederatedEnabled() {
		respondError(w, r, domain.ErrFederatedDisabled, "")
		return
	}

	var req GoogleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.LoginFederated(r.Context(), req.Code)
	if err != nil {
		observability.AdminLoginsTotal.WithLabelValues(domain.AuthMethodGoogle, "failure").Inc()
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Google account is not an admin")
			return
		}
		respondError(w, r, err, "Failed to log in")
		return
	}
	observability.AdminLoginsTotal.WithLabelValues(domain.AuthMethodGoogle, "success").Inc()

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: session.Token, TokenType: "bearer"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, r, err, "Failed to logout")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

// Me returns the authenticated admin.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	admin, err := h.authService.GetAdmin(r.Context(), adminID)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		respondError(w, r, err, "Failed to get admin")
		return
	}

	resp := AdminResponse{ID: admin.ID, Username: admin.Username, Email: admin.Email}
	if session, ok := middleware.GetSession(r.Context()); ok {
		resp.AuthMethod = session.AuthMethod
	}
	writeJSON(w, http.StatusOK, resp)
}

// ChangePassword replaces the admin's password. Every session of the admin,
// including the caller's, is revoked.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetAdminID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), adminID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err, "Failed to change password")
		return
	}

	observability.FromContext(r.Context()).Info("admin password changed")
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}
