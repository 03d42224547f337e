package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService handles registration, login and password lifecycle.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleAssignmentRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	recorder   *audit.Recorder
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo        repository.UserRepository
	RoleRepo        repository.RoleAssignmentRepository
	ResetRepo       repository.PasswordResetRepository
	Tokens          *auth.TokenManager
	Recorder        *audit.Recorder
	BcryptCost      int
	ResetTTLMinutes int
}

// NewAuthService instantiates the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	cost := deps.BcryptCost
	if cost <= 0 {
		cost = 12
	}
	ttl := deps.ResetTTLMinutes
	if ttl <= 0 {
		ttl = 30
	}
	return &AuthService{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		resets:     deps.ResetRepo,
		tokens:     deps.Tokens,
		recorder:   deps.Recorder,
		bcryptCost: cost,
		resetTTL:   time.Duration(ttl) * time.Minute,
	}
}

// RegisterInput describes signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult carries the signed token alongside the account.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and grants the global USER role. Everyone
// starts as a plain user; staff roles are granted separately.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta audit.RequestMeta) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required", map[string]any{"field": "email"})
	}
	if len(in.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email is already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	assignment := &domain.RoleAssignment{
		UserID:   user.ID,
		RoleCode: domain.RoleUser,
		IsActive: true,
	}
	if err := s.roles.Create(ctx, assignment); err != nil {
		return nil, apperrors.MapError(err)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	p := &authz.Principal{User: user, Roles: []domain.RoleAssignment{*assignment}}
	recordActivity(ctx, s.recorder, p, "user.registered", "user", user.ID, nil, map[string]any{
		"email": user.Email,
	}, meta)
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login verifies credentials and issues a token. Invalid email and invalid
// password return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string, meta audit.RequestMeta) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	p := &authz.Principal{User: user}
	recordActivity(ctx, s.recorder, p, "user.logged_in", "user", user.ID, nil, nil, meta)
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// RequestPasswordReset issues a single-use reset token. It succeeds quietly
// for unknown emails so the endpoint cannot be used to probe accounts; the
// token reaches the user through the notifier, never the response body.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}

	now := time.Now()
	reset := &domain.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reset, nil
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string, meta audit.RequestMeta) error {
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}
	reset, err := s.resets.Get(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token is invalid or expired", nil)
		}
		return apperrors.MapError(err)
	}
	now := time.Now()
	if reset.Expired(now) {
		return apperrors.NewValidationError("reset token is invalid or expired", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.resets.MarkUsed(ctx, token, now); err != nil {
		return apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, nil, "user.password_reset", "user", reset.UserID, nil, nil, meta)
	return nil
}

// ChangePassword updates the authenticated user's password after verifying
// the current one.
func (s *AuthService) ChangePassword(ctx context.Context, p *authz.Principal, current, next string, meta audit.RequestMeta) error {
	if p == nil || p.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if len(next) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}
	if err := auth.ComparePassword(p.User.PasswordHash, current); err != nil {
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, p.User.ID, hash); err != nil {
		return apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, p, "user.password_changed", "user", p.User.ID, nil, nil, meta)
	return nil
}

// GetProfile returns an account. Users read their own; platform admins
// anyone's.
func (s *AuthService) GetProfile(ctx context.Context, p *authz.Principal, userID string) (*domain.User, error) {
	if p.UserID() != userID {
		isAdmin := false
		for _, r := range p.ActiveRoles() {
			if r.RoleCode == domain.RolePlatformAdmin {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			return nil, apperrors.NewForbidden()
		}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
