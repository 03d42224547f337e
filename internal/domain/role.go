package domain

import "time"

// RoleCode enumerates the roles a user can hold.
type RoleCode string

const (
	RoleUser          RoleCode = "USER"
	RoleAgent         RoleCode = "AGENT"
	RoleCompanyAdmin  RoleCode = "COMPANY_ADMIN"
	RolePlatformAdmin RoleCode = "PLATFORM_ADMIN"
)

// RequiresCompany reports whether the role is scoped to a single company.
// AGENT and COMPANY_ADMIN must carry a company id; USER and PLATFORM_ADMIN
// must not.
func (r RoleCode) RequiresCompany() bool {
	return r == RoleAgent || r == RoleCompanyAdmin
}

// Valid reports whether the code is one of the known roles.
func (r RoleCode) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleCompanyAdmin, RolePlatformAdmin:
		return true
	}
	return false
}

// RoleAssignment grants a role to a user, optionally scoped to a company.
// Assignments are soft-revoked rather than deleted to preserve the audit
// trail.
type RoleAssignment struct {
	ID               string
	UserID           string
	RoleCode         RoleCode
	CompanyID        *string
	IsActive         bool
	AssignedAt       time.Time
	AssignedBy       *string
	RevokedAt        *time.Time
	RevocationReason *string
}

// Active reports whether the assignment currently confers the role.
func (a RoleAssignment) Active() bool {
	return a.IsActive && a.RevokedAt == nil
}
