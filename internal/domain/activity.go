package domain

import "time"

// ActivityLogEntry is an append-only record of a system action. Entries are
// written best-effort through the audit buffer and purged after a retention
// window.
type ActivityLogEntry struct {
	ID         string         `json:"id,omitempty"`
	UserID     *string        `json:"user_id,omitempty"`
	Action     string         `json:"action"`
	EntityType *string        `json:"entity_type,omitempty"`
	EntityID   *string        `json:"entity_id,omitempty"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	IPAddress  *string        `json:"ip_address,omitempty"`
	UserAgent  *string        `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
