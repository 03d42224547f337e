package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "OPEN"
	TicketStatusPending  TicketStatus = "PENDING"
	TicketStatusResolved TicketStatus = "RESOLVED"
	TicketStatusClosed   TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ResponseAuthorType indicates who wrote the last response on a ticket.
type ResponseAuthorType string

const (
	AuthorTypeNone  ResponseAuthorType = "NONE"
	AuthorTypeUser  ResponseAuthorType = "USER"
	AuthorTypeAgent ResponseAuthorType = "AGENT"
)

// Ticket is the aggregate for support requests.
//
// OwnerAgentID is set exactly once by the first agent response (conditional
// update in the repository) and afterwards changes only through explicit
// reassignment. Regular field updates never touch it.
type Ticket struct {
	ID                     string
	TicketCode             string
	CompanyID              string
	CategoryID             string
	CreatedByUserID        string
	OwnerAgentID           *string
	Title                  string
	Description            string
	Status                 TicketStatus
	Priority               TicketPriority
	LastResponseAuthorType ResponseAuthorType
	FirstResponseAt        *time.Time
	ResolvedAt             *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// FormatTicketCode renders the public ticket code, sequential per year.
func FormatTicketCode(year int, seq int64) string {
	return fmt.Sprintf("TKT-%d-%05d", year, seq)
}
