package domain

import "time"

// TicketResponse captures one message in a ticket thread. Responses are
// append-only; they are removed only when the parent ticket is deleted.
// AuthorType is derived from the responding principal's active role in the
// ticket's company, never from client input.
type TicketResponse struct {
	ID          string
	TicketID    string
	AuthorID    string
	AuthorType  ResponseAuthorType
	Content     string
	Attachments []ResponseAttachment
	CreatedAt   time.Time
}

// ResponseAttachment stores metadata for files attached to a response.
type ResponseAttachment struct {
	ID         string
	ResponseID string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
