package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthdesk/medvault/internal/middleware"
	"github.com/healthdesk/medvault/internal/models"
)

// UserAdminService defines the user management operations required by
// the handlers.
type UserAdminService interface {
	CreateUser(ctx context.Context, actor models.Actor, username, password string, role models.Role) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error)
	DisableUser(ctx context.Context, actor models.Actor, username string) error
}

// UserHandler handles the /api/users routes.
type UserHandler struct {
	Users UserAdminService
}

// CreateUserRequest is the JSON payload of POST /api/users.
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// userView is a user without the verifier.
type userView struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	Disabled  bool        `json:"disabled"`
	CreatedAt string      `json:"created_at"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.Users.CreateUser(r.Context(), actor, req.Username, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(userView{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Disabled:  user.Disabled,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	users, err := h.Users.ListUsers(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:        u.ID,
			Username:  u.Username,
			Role:      u.Role,
			Disabled:  u.Disabled,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// Disable handles POST /api/users/{username}/disable.
func (h *UserHandler) Disable(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	if err := h.Users.DisableUser(r.Context(), actor, chi.URLParam(r, "username")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
