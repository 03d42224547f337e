package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ResponseService appends responses to ticket threads and owns the
// assign-on-first-response trigger.
type ResponseService struct {
	tickets     repository.TicketRepository
	responses   repository.TicketResponseRepository
	attachments repository.AttachmentRepository
	authorizer  *authz.Authorizer
	dispatcher  events.Dispatcher
	recorder    *audit.Recorder
}

// ResponseDependencies bundles collaborators.
type ResponseDependencies struct {
	TicketRepo     repository.TicketRepository
	ResponseRepo   repository.TicketResponseRepository
	AttachmentRepo repository.AttachmentRepository
	Authorizer     *authz.Authorizer
	Dispatcher     events.Dispatcher
	Recorder       *audit.Recorder
}

// ResponseAttachmentInput defines attachment metadata.
type ResponseAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// NewResponseService constructs the service.
func NewResponseService(deps ResponseDependencies) *ResponseService {
	return &ResponseService{
		tickets:     deps.TicketRepo,
		responses:   deps.ResponseRepo,
		attachments: deps.AttachmentRepo,
		authorizer:  deps.Authorizer,
		dispatcher:  deps.Dispatcher,
		recorder:    deps.Recorder,
	}
}

// CreateResponse appends a response. The author type is derived from the
// principal's active role in the ticket's company, never from the request.
// An agent's first response to an unowned ticket atomically claims ownership
// and flips the ticket to PENDING; the claim is a conditional update inside
// the repository transaction, so concurrent agents cannot both win.
func (s *ResponseService) CreateResponse(ctx context.Context, p *authz.Principal, ticketID, content string, attachments []ResponseAttachmentInput, meta audit.RequestMeta) (*domain.TicketResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"field": "content"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	creator := ticket.CreatedByUserID == p.UserID()
	agent := s.authorizer.IsAgentInCompany(p, ticket.CompanyID)
	staff := s.authorizer.IsCompanyStaff(p, ticket.CompanyID)
	if !creator && !staff {
		return nil, apperrors.NewForbidden()
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidStateTransition("ticket is closed",
			map[string]any{"status": ticket.Status})
	}

	authorType := domain.AuthorTypeUser
	if agent {
		authorType = domain.AuthorTypeAgent
	}

	resp := &domain.TicketResponse{
		TicketID:   ticket.ID,
		AuthorID:   p.UserID(),
		AuthorType: authorType,
		Content:    content,
	}
	effect := repository.ResponseWriteEffect{
		ReopenFromPending: authorType == domain.AuthorTypeUser && creator && ticket.Status == domain.TicketStatusPending,
	}
	claimed, err := s.responses.Create(ctx, resp, effect)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, att := range attachments {
		record := &domain.ResponseAttachment{
			ResponseID: resp.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		resp.Attachments = append(resp.Attachments, *record)
	}

	if claimed {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:      events.EventTicketAssigned,
			CompanyID: ticket.CompanyID,
			TicketID:  ticket.ID,
			ActorID:   p.UserID(),
			Payload: events.TicketAssignedPayload{
				OwnerAgentID:  p.UserID(),
				FirstResponse: true,
			},
		})
		recordActivity(ctx, s.recorder, p, "ticket.assigned", "ticket", ticket.ID,
			map[string]any{"owner_agent_id": nil},
			map[string]any{"owner_agent_id": p.UserID()}, meta)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventResponseAdded,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ActorID:   p.UserID(),
		Payload: events.ResponseAddedPayload{
			ResponseID:  resp.ID,
			AuthorType:  resp.AuthorType,
			AuthorID:    resp.AuthorID,
			BodyPreview: preview(resp.Content, 120),
		},
	})
	recordActivity(ctx, s.recorder, p, "ticket.response_added", "ticket", ticket.ID, nil, map[string]any{
		"response_id": resp.ID,
		"author_type": resp.AuthorType,
	}, meta)
	return resp, nil
}

// ListResponses returns the thread for a ticket the principal may view.
func (s *ResponseService) ListResponses(ctx context.Context, p *authz.Principal, ticketID string) ([]domain.TicketResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.authorizer.CanMutateTicket(p, ticket, authz.ActionView) {
		return nil, apperrors.NewForbidden()
	}
	responses, err := s.responses.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range responses {
		atts, err := s.attachments.ListByResponse(ctx, responses[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		responses[i].Attachments = atts
	}
	return responses, nil
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
