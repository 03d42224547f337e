package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CompanyID   string                `json:"company_id"`
	CategoryID  string                `json:"category_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest carries the mutable ticket fields. A status value in
// the payload is ignored; status changes go through the dedicated actions.
type UpdateTicketRequest struct {
	Title      *string                `json:"title"`
	CategoryID *string                `json:"category_id"`
	Priority   *domain.TicketPriority `json:"priority"`
}

// ReassignTicketRequest payload.
type ReassignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                     string                    `json:"id"`
	TicketCode             string                    `json:"ticket_code"`
	CompanyID              string                    `json:"company_id"`
	CategoryID             string                    `json:"category_id"`
	OwnerAgentID           *string                   `json:"owner_agent_id"`
	Title                  string                    `json:"title"`
	Status                 domain.TicketStatus       `json:"status"`
	Priority               domain.TicketPriority     `json:"priority"`
	LastResponseAuthorType domain.ResponseAuthorType `json:"last_response_author_type"`
	CreatedAt              time.Time                 `json:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                     string                    `json:"id"`
	TicketCode             string                    `json:"ticket_code"`
	CompanyID              string                    `json:"company_id"`
	CategoryID             string                    `json:"category_id"`
	CreatedByUserID        string                    `json:"created_by_user_id"`
	OwnerAgentID           *string                   `json:"owner_agent_id"`
	Title                  string                    `json:"title"`
	Description            string                    `json:"description"`
	Status                 domain.TicketStatus       `json:"status"`
	Priority               domain.TicketPriority     `json:"priority"`
	LastResponseAuthorType domain.ResponseAuthorType `json:"last_response_author_type"`
	FirstResponseAt        *time.Time                `json:"first_response_at"`
	ResolvedAt             *time.Time                `json:"resolved_at"`
	CreatedAt              time.Time                 `json:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at"`
	Responses              []ResponseItem            `json:"responses,omitempty"`
}

// CreateResponseRequest payload.
type CreateResponseRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes an uploaded file reference.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ResponseItem response.
type ResponseItem struct {
	ID          string                    `json:"id"`
	TicketID    string                    `json:"ticket_id"`
	AuthorID    string                    `json:"author_id"`
	AuthorType  domain.ResponseAuthorType `json:"author_type"`
	Content     string                    `json:"content"`
	Attachments []AttachmentResponse      `json:"attachments"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// AttachmentResponse response.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// CreateRatingRequest payload. Also used for rating amendments.
type CreateRatingRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// RatingResponse response.
type RatingResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	RatedByUserID string    `json:"rated_by_user_id"`
	RatedAgentID  *string   `json:"rated_agent_id"`
	Rating        int       `json:"rating"`
	Comment       *string   `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// AgentScoreResponse aggregates a single agent's ratings.
type AgentScoreResponse struct {
	AgentID string  `json:"agent_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	IsActive  bool   `json:"is_active"`
}
