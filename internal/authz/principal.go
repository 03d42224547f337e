package authz

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Principal is the authenticated actor. It carries the user and the active
// role assignments resolved at request time; services receive it explicitly
// instead of reading ambient request state.
type Principal struct {
	User  *domain.User
	Roles []domain.RoleAssignment
}

// UserID returns the principal's user id, or empty when unauthenticated.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}

// ActiveRoles returns only assignments that currently confer a role.
func (p *Principal) ActiveRoles() []domain.RoleAssignment {
	if p == nil {
		return nil
	}
	active := make([]domain.RoleAssignment, 0, len(p.Roles))
	for _, role := range p.Roles {
		if role.Active() {
			active = append(active, role)
		}
	}
	return active
}
