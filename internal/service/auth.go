package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healthdesk/medvault/internal/crypto"
	"github.com/healthdesk/medvault/internal/models"
	"github.com/healthdesk/medvault/internal/repository"
)

// UserRepository defines the credential persistence operations
// required by the auth service.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Insert(ctx context.Context, q repository.Querier, u *models.User) (int64, error)
	List(ctx context.Context) ([]models.User, error)
	Disable(ctx context.Context, q repository.Querier, username string) error
}

// AuthService implements login and user provisioning. Provisioning
// goes through the same entry points the seeder uses; there is no
// backdoor write path.
type AuthService struct {
	db    *sql.DB
	users UserRepository
	audit *AuditService
	log   *zap.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(db *sql.DB, users UserRepository, audit *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{db: db, users: users, audit: audit, log: log}
}

// Authenticate verifies a username/password pair. Unknown user, wrong
// password and disabled account all fail with the same error and the
// same generic audit detail, so the response cannot be used to
// enumerate accounts.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	fail := func() (*models.User, error) {
		attempt := models.Actor{Username: username}
		if err := s.audit.Record(ctx, attempt, models.ActionLoginFailed, "invalid credentials"); err != nil {
			return nil, err
		}
		return nil, models.ErrAuthenticationFailed
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fail()
	case err != nil:
		return nil, err
	}
	if user.Disabled || !crypto.VerifyPassword(password, user.PasswordHash) {
		return fail()
	}

	actor := models.Actor{ID: user.ID, Username: user.Username, Role: user.Role}
	if err := s.audit.Record(ctx, actor, models.ActionLogin, "login successful"); err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// CreateUser provisions an account. Admin only. User management sits
// outside the patient-operation policy table, so the role gate lives
// here; denied attempts are still logged.
func (s *AuthService) CreateUser(ctx context.Context, actor models.Actor, username, password string, role models.Role) (*models.User, error) {
	if actor.Role != models.RoleAdmin {
		_ = s.audit.Record(ctx, actor, models.ActionAccessDenied, "attempted CreateUser")
		return nil, models.ErrAuthorizationDenied
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		id, err := s.users.Insert(ctx, tx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return s.audit.RecordTx(ctx, tx, actor, models.ActionCreateUser,
			fmt.Sprintf("created user %s with role %s", username, role))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all accounts. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if actor.Role != models.RoleAdmin {
		_ = s.audit.Record(ctx, actor, models.ActionAccessDenied, "attempted ListUsers")
		return nil, models.ErrAuthorizationDenied
	}
	return s.users.List(ctx)
}

// DisableUser soft-disables an account. Admin only; accounts are never
// deleted.
func (s *AuthService) DisableUser(ctx context.Context, actor models.Actor, username string) error {
	if actor.Role != models.RoleAdmin {
		_ = s.audit.Record(ctx, actor, models.ActionAccessDenied, "attempted DisableUser")
		return models.ErrAuthorizationDenied
	}
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.users.Disable(ctx, tx, username); err != nil {
			return err
		}
		return s.audit.RecordTx(ctx, tx, actor, models.ActionDisableUser, "disabled user "+username)
	})
}
