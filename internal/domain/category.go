package domain

import "time"

// TicketCategory is company-scoped reference data for classifying tickets.
type TicketCategory struct {
	ID        string
	CompanyID string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
