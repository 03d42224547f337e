package domain

import "time"

// TicketRating records the creator's verdict on a resolved ticket.
//
// RatedAgentID is a snapshot of the ticket's owner at rating time. It is
// never recomputed, so a later reassignment of the ticket cannot steal or
// shed credit for the work that was actually rated.
type TicketRating struct {
	ID            string
	TicketID      string
	RatedByUserID string
	RatedAgentID  *string
	Rating        int
	Comment       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RatingEditWindow is how long the author may amend a rating after creating it.
const RatingEditWindow = 24 * time.Hour
