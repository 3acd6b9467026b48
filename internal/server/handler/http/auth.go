// Package http provides the HTTP boundary of the dashboard: the
// session endpoints and the gated patient, user and audit routes. All
// policy enforcement happens in the core; these handlers only carry
// the session's actor into it and render results.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/healthdesk/medvault/internal/middleware"
	"github.com/healthdesk/medvault/internal/models"
)

// AuthService defines the authentication operations required by the
// HTTP handlers.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// SessionStore is the session lifecycle required by the handlers.
type SessionStore interface {
	Create(actor models.Actor) string
	Delete(token string)
}

// AuditRecorder records boundary-level actions (logout).
type AuditRecorder interface {
	Record(ctx context.Context, actor models.Actor, action models.Action, detail string) error
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	AuthService AuthService
	Sessions    SessionStore
	Audit       AuditRecorder
}

// LoginRequest is the JSON payload of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the session token and the role for the UI to
// shape itself around. Hiding controls is a usability aid only; the
// core re-checks every operation.
type LoginResponse struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.AuthService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	actor := models.Actor{ID: user.ID, Username: user.Username, Role: user.Role}
	token := h.Sessions.Create(actor)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{Token: token, Username: user.Username, Role: user.Role})
}

// Logout handles POST /api/logout. It requires an authenticated
// session and logs the action.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	token := bearerToken(r)
	h.Sessions.Delete(token)
	_ = h.Audit.Record(r.Context(), actor, models.ActionLogout, "logged out")
	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
