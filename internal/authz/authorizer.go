package authz

import "github.com/spec-kit/helpdesk-service/internal/domain"

// TicketAction enumerates the mutations the authorizer can rule on.
type TicketAction string

const (
	ActionUpdate   TicketAction = "update"
	ActionRespond  TicketAction = "respond"
	ActionResolve  TicketAction = "resolve"
	ActionClose    TicketAction = "close"
	ActionReopen   TicketAction = "reopen"
	ActionDelete   TicketAction = "delete"
	ActionReassign TicketAction = "reassign"
	ActionRate     TicketAction = "rate"
	ActionView     TicketAction = "view"
)

// Authorizer answers role and ticket-mutation questions for a principal.
// All ticket actor rules live here rather than scattered across handlers.
type Authorizer struct{}

// NewAuthorizer constructs the authorizer.
func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// HasRole reports whether the principal holds an active assignment of the
// given role, in any company.
func (a *Authorizer) HasRole(p *Principal, code domain.RoleCode) bool {
	for _, role := range p.ActiveRoles() {
		if role.RoleCode == code {
			return true
		}
	}
	return false
}

// HasRoleInCompany reports whether the principal holds an active assignment
// of the given role scoped to companyID. PLATFORM_ADMIN bypasses company
// scoping entirely; for every other role the assignment must match both the
// role code and the company. A COMPANY_ADMIN of company A has zero authority
// over company B.
func (a *Authorizer) HasRoleInCompany(p *Principal, code domain.RoleCode, companyID string) bool {
	if a.HasRole(p, domain.RolePlatformAdmin) {
		return true
	}
	for _, role := range p.ActiveRoles() {
		if role.RoleCode != code {
			continue
		}
		if role.CompanyID != nil && *role.CompanyID == companyID {
			return true
		}
	}
	return false
}

// IsCompanyStaff reports whether the principal is an AGENT or COMPANY_ADMIN
// of the given company. Platform admins are not company staff: they never
// mutate tickets.
func (a *Authorizer) IsCompanyStaff(p *Principal, companyID string) bool {
	for _, role := range p.ActiveRoles() {
		if role.CompanyID == nil || *role.CompanyID != companyID {
			continue
		}
		if role.RoleCode == domain.RoleAgent || role.RoleCode == domain.RoleCompanyAdmin {
			return true
		}
	}
	return false
}

// IsAgentInCompany reports whether the principal holds an active AGENT role
// in the given company, without the platform-admin bypass. Only agents
// acquire ticket ownership through first response.
func (a *Authorizer) IsAgentInCompany(p *Principal, companyID string) bool {
	for _, role := range p.ActiveRoles() {
		if role.RoleCode != domain.RoleAgent {
			continue
		}
		if role.CompanyID != nil && *role.CompanyID == companyID {
			return true
		}
	}
	return false
}

// CanMutateTicket encodes the ticket actor table. Tenant isolation is
// absolute for mutations: PLATFORM_ADMIN may read across companies but never
// mutates tickets.
func (a *Authorizer) CanMutateTicket(p *Principal, ticket *domain.Ticket, action TicketAction) bool {
	if p == nil || p.User == nil || ticket == nil {
		return false
	}
	creator := ticket.CreatedByUserID == p.User.ID
	staff := a.IsCompanyStaff(p, ticket.CompanyID)

	switch action {
	case ActionView:
		return creator || staff || a.HasRole(p, domain.RolePlatformAdmin)
	case ActionUpdate:
		if creator && ticket.Status == domain.TicketStatusOpen {
			return true
		}
		return staff && ticket.Status != domain.TicketStatusClosed
	case ActionRespond:
		if ticket.Status == domain.TicketStatusClosed {
			return false
		}
		return creator || staff
	case ActionResolve:
		if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusPending {
			return false
		}
		return staff
	case ActionClose:
		return staff && ticket.Status != domain.TicketStatusClosed
	case ActionReopen:
		if ticket.Status != domain.TicketStatusResolved {
			return false
		}
		return creator || staff
	case ActionDelete:
		return staff && ticket.Status == domain.TicketStatusClosed
	case ActionReassign:
		return a.isCompanyAdminOf(p, ticket.CompanyID)
	case ActionRate:
		if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
			return false
		}
		return creator
	}
	return false
}

func (a *Authorizer) isCompanyAdminOf(p *Principal, companyID string) bool {
	for _, role := range p.ActiveRoles() {
		if role.RoleCode == domain.RoleCompanyAdmin && role.CompanyID != nil && *role.CompanyID == companyID {
			return true
		}
	}
	return false
}
