package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserResponse response.
type UserResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// AuthResponse carries the token plus account info.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RoleAssignRequest payload.
type RoleAssignRequest struct {
	UserID    string          `json:"user_id"`
	RoleCode  domain.RoleCode `json:"role_code"`
	CompanyID *string         `json:"company_id"`
}

// RoleRevokeRequest payload.
type RoleRevokeRequest struct {
	Reason string `json:"reason"`
}

// RoleAssignmentResponse response.
type RoleAssignmentResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	RoleCode   domain.RoleCode `json:"role_code"`
	CompanyID  *string         `json:"company_id"`
	IsActive   bool            `json:"is_active"`
	AssignedAt time.Time       `json:"assigned_at"`
	RevokedAt  *time.Time      `json:"revoked_at"`
}
