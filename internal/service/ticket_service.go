package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	companies  repository.CompanyRepository
	roles      repository.RoleAssignmentRepository
	authorizer *authz.Authorizer
	dispatcher events.Dispatcher
	recorder   *audit.Recorder
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	CompanyRepo  repository.CompanyRepository
	RoleRepo     repository.RoleAssignmentRepository
	Authorizer   *authz.Authorizer
	Dispatcher   events.Dispatcher
	Recorder     *audit.Recorder
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CompanyID   string
	CategoryID  string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketUpdateInput carries the fields a normal update may touch. A status
// value arriving in the request payload is dropped before it ever reaches
// here; status changes go through the dedicated actions.
type TicketUpdateInput struct {
	Title      *string
	CategoryID *string
	Priority   *domain.TicketPriority
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	CompanyID   *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		companies:  deps.CompanyRepo,
		roles:      deps.RoleRepo,
		authorizer: deps.Authorizer,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
	}
}

// CreateTicket opens a new ticket on behalf of the principal.
func (s *TicketService) CreateTicket(ctx context.Context, p *authz.Principal, input TicketCreateInput, meta audit.RequestMeta) (*domain.Ticket, error) {
	company, err := s.companies.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if company.Status != domain.CompanyStatusActive {
		return nil, apperrors.NewConflict("company is not active", map[string]any{"company_id": company.ID})
	}
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if category.CompanyID != company.ID {
		return nil, apperrors.NewValidationError("category does not belong to company", nil)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
	}

	now := time.Now()
	seq, err := s.tickets.NextSequence(ctx, now.Year())
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		TicketCode:             domain.FormatTicketCode(now.Year(), seq),
		CompanyID:              company.ID,
		CategoryID:             category.ID,
		CreatedByUserID:        p.UserID(),
		Title:                  strings.TrimSpace(input.Title),
		Description:            strings.TrimSpace(input.Description),
		Status:                 domain.TicketStatusOpen,
		Priority:               input.Priority,
		LastResponseAuthorType: domain.AuthorTypeNone,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketCreated,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ActorID:   p.UserID(),
		Payload: events.TicketCreatedPayload{
			TicketCode: ticket.TicketCode,
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	recordActivity(ctx, s.recorder, p, "ticket.created", "ticket", ticket.ID, nil, map[string]any{
		"ticket_code": ticket.TicketCode,
		"title":       ticket.Title,
		"status":      ticket.Status,
	}, meta)
	return ticket, nil
}

// GetTicket fetches a ticket the principal is allowed to see.
func (s *TicketService) GetTicket(ctx context.Context, p *authz.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionView) {
		return nil, apperrors.NewForbidden()
	}
	return ticket, nil
}

// ListTickets returns tickets visible to the principal. Requesting a company
// scope requires staff membership there or the platform role; otherwise the
// listing is restricted to the caller's own tickets.
func (s *TicketService) ListTickets(ctx context.Context, p *authz.Principal, input TicketListInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses:    input.Statuses,
		Priorities:  input.Priorities,
		SearchTerm:  input.SearchTerm,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}

	switch {
	case input.CompanyID != nil && s.authorizer.HasRole(p, domain.RolePlatformAdmin):
		filter.CompanyID = input.CompanyID
	case input.CompanyID != nil && s.authorizer.IsCompanyStaff(p, *input.CompanyID):
		filter.CompanyID = input.CompanyID
	case input.CompanyID != nil:
		return nil, apperrors.NewForbidden()
	default:
		userID := p.UserID()
		filter.CreatedBy = &userID
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// UpdateTicket applies a non-status field update. Allowed while OPEN for the
// creator, and in any non-closed status for company staff. A disallowed
// combination is a forbidden error, not a validation error.
func (s *TicketService) UpdateTicket(ctx context.Context, p *authz.Principal, ticketID string, input TicketUpdateInput, meta audit.RequestMeta) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionUpdate) {
		return nil, apperrors.NewForbidden()
	}

	staff := s.authorizer.IsCompanyStaff(p, ticket.CompanyID)
	oldValues := map[string]any{}
	newValues := map[string]any{}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		oldValues["title"] = ticket.Title
		ticket.Title = strings.TrimSpace(*input.Title)
		newValues["title"] = ticket.Title
	}
	if input.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if category.CompanyID != ticket.CompanyID {
			return nil, apperrors.NewValidationError("category does not belong to company", nil)
		}
		oldValues["category_id"] = ticket.CategoryID
		ticket.CategoryID = category.ID
		newValues["category_id"] = ticket.CategoryID
	}
	if input.Priority != nil && staff {
		oldValues["priority"] = ticket.Priority
		ticket.Priority = *input.Priority
		newValues["priority"] = ticket.Priority
	}

	if len(newValues) == 0 {
		return ticket, nil
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	recordActivity(ctx, s.recorder, p, "ticket.updated", "ticket", ticket.ID, oldValues, newValues, meta)
	return ticket, nil
}

// ResolveTicket marks the ticket resolved.
func (s *TicketService) ResolveTicket(ctx context.Context, p *authz.Principal, ticketID string, meta audit.RequestMeta) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.IsCompanyStaff(p, ticket.CompanyID) {
		return nil, apperrors.NewForbidden()
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionResolve) {
		return nil, apperrors.NewInvalidStateTransition("ticket cannot be resolved in its current status",
			map[string]any{"status": ticket.Status})
	}
	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusResolved
	ticket.ResolvedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, p, ticket, oldStatus, "resolved")
	recordActivity(ctx, s.recorder, p, "ticket.resolved", "ticket", ticket.ID,
		map[string]any{"status": oldStatus}, map[string]any{"status": ticket.Status}, meta)
	return ticket, nil
}

// CloseTicket closes the ticket.
func (s *TicketService) CloseTicket(ctx context.Context, p *authz.Principal, ticketID string, meta audit.RequestMeta) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.IsCompanyStaff(p, ticket.CompanyID) {
		return nil, apperrors.NewForbidden()
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionClose) {
		return nil, apperrors.NewInvalidStateTransition("ticket already closed",
			map[string]any{"status": ticket.Status})
	}
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, p, ticket, oldStatus, "closed")
	recordActivity(ctx, s.recorder, p, "ticket.closed", "ticket", ticket.ID,
		map[string]any{"status": oldStatus}, map[string]any{"status": ticket.Status}, meta)
	return ticket, nil
}

// ReopenTicket is the explicit resolved-to-open action. Ownership is
// retained: a later agent response must not re-claim the ticket.
func (s *TicketService) ReopenTicket(ctx context.Context, p *authz.Principal, ticketID string, meta audit.RequestMeta) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	creator := ticket.CreatedByUserID == p.UserID()
	if !creator && !s.authorizer.IsCompanyStaff(p, ticket.CompanyID) {
		return nil, apperrors.NewForbidden()
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionReopen) {
		return nil, apperrors.NewInvalidStateTransition("only resolved tickets can be reopened",
			map[string]any{"status": ticket.Status})
	}
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusOpen
	ticket.ResolvedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatusChange(ctx, p, ticket, oldStatus, "reopened")
	recordActivity(ctx, s.recorder, p, "ticket.reopened", "ticket", ticket.ID,
		map[string]any{"status": oldStatus}, map[string]any{"status": ticket.Status}, meta)
	return ticket, nil
}

// DeleteTicket removes a closed ticket. Responses and attachments cascade.
func (s *TicketService) DeleteTicket(ctx context.Context, p *authz.Principal, ticketID string, meta audit.RequestMeta) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !s.authorizer.IsCompanyStaff(p, ticket.CompanyID) {
		return apperrors.NewForbidden()
	}
	if ticket.Status != domain.TicketStatusClosed {
		return apperrors.NewInvalidStateTransition("ticket must be CLOSED before deletion",
			map[string]any{"status": ticket.Status, "required_status": domain.TicketStatusClosed})
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	recordActivity(ctx, s.recorder, p, "ticket.deleted", "ticket", ticket.ID,
		map[string]any{"ticket_code": ticket.TicketCode, "status": ticket.Status}, nil, meta)
	return nil
}

// ReassignTicket explicitly moves ownership to another agent of the same
// company.
func (s *TicketService) ReassignTicket(ctx context.Context, p *authz.Principal, ticketID, agentID string, meta audit.RequestMeta) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionReassign) {
		return nil, apperrors.NewForbidden()
	}
	assignment, err := s.roles.Find(ctx, agentID, domain.RoleAgent, &ticket.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("assignee is not an agent of this company", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !assignment.Active() {
		return nil, apperrors.NewConflict("assignee role is revoked", map[string]any{"user_id": agentID})
	}
	oldOwner := ticket.OwnerAgentID
	if err := s.tickets.Reassign(ctx, ticket.ID, agentID); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.OwnerAgentID = &agentID

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketAssigned,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ActorID:   p.UserID(),
		Payload:   events.TicketAssignedPayload{OwnerAgentID: agentID},
	})
	recordActivity(ctx, s.recorder, p, "ticket.reassigned", "ticket", ticket.ID,
		map[string]any{"owner_agent_id": oldOwner}, map[string]any{"owner_agent_id": agentID}, meta)
	return ticket, nil
}

// AutoCloseResolved closes every ticket resolved longer ago than the window.
// Invoked by the scheduler; idempotent.
func (s *TicketService) AutoCloseResolved(ctx context.Context, window time.Duration) (int, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	ids, err := s.tickets.AutoCloseResolvedBefore(ctx, time.Now().Add(-window))
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for _, id := range ids {
		recordActivity(ctx, s.recorder, nil, "ticket.auto_closed", "ticket", id,
			map[string]any{"status": domain.TicketStatusResolved},
			map[string]any{"status": domain.TicketStatusClosed}, audit.RequestMeta{})
	}
	return len(ids), nil
}

func (s *TicketService) publishStatusChange(ctx context.Context, p *authz.Principal, ticket *domain.Ticket, oldStatus domain.TicketStatus, comment string) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventTicketStatusChanged,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ActorID:   p.UserID(),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		},
	})
}

// CreateCategory adds a ticket category to a company. Company admins only.
func (s *TicketService) CreateCategory(ctx context.Context, p *authz.Principal, companyID, name string, meta audit.RequestMeta) (*domain.TicketCategory, error) {
	if !s.authorizer.HasRoleInCompany(p, domain.RoleCompanyAdmin, companyID) {
		return nil, apperrors.NewForbidden()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", map[string]any{"field": "name"})
	}

	category := &domain.TicketCategory{
		CompanyID: companyID,
		Name:      name,
		IsActive:  true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, p, "category.created", "ticket_category", category.ID, nil, map[string]any{
		"company_id": companyID,
		"name":       name,
	}, meta)
	return category, nil
}

// ListCategories returns a company's categories. Any authenticated user may
// read them; they are needed to open a ticket.
func (s *TicketService) ListCategories(ctx context.Context, companyID string) ([]domain.TicketCategory, error) {
	categories, err := s.categories.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}
