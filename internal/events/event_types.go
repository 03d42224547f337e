package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventResponseAdded       EventType = "response_added"
	EventRatingCreated       EventType = "rating_created"
	EventCompanyApproved     EventType = "company_approved"
)

// Event represents a domain event emitted by services. The notifier and any
// other subscriber observe these; publication is fire-and-forget.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CompanyID string      `json:"company_id,omitempty"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketCode string                `json:"ticket_code"`
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OwnerAgentID  string `json:"owner_agent_id"`
	FirstResponse bool   `json:"first_response"`
}

// ResponseAddedPayload carries enough for the notifier to message the
// counterpart party.
type ResponseAddedPayload struct {
	ResponseID  string                    `json:"response_id"`
	AuthorType  domain.ResponseAuthorType `json:"author_type"`
	AuthorID    string                    `json:"author_id"`
	BodyPreview string                    `json:"body_preview"`
}

// RatingCreatedPayload payload.
type RatingCreatedPayload struct {
	RatingID     string  `json:"rating_id"`
	Rating       int     `json:"rating"`
	RatedAgentID *string `json:"rated_agent_id,omitempty"`
}

// CompanyApprovedPayload payload.
type CompanyApprovedPayload struct {
	CompanyName string `json:"company_name"`
	AdminEmail  string `json:"admin_email"`
}
