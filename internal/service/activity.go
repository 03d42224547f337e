package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// recordActivity stages one audit entry, filling actor and transport
// metadata. Best-effort by contract: it never fails the business operation.
func recordActivity(ctx context.Context, recorder *audit.Recorder, p *authz.Principal, action, entityType, entityID string, oldValues, newValues map[string]any, meta audit.RequestMeta) {
	if recorder == nil {
		return
	}
	entry := domain.ActivityLogEntry{
		Action:     action,
		EntityType: strPtr(entityType),
		EntityID:   &entityID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if id := p.UserID(); id != "" {
		entry.UserID = &id
	}
	if meta.IPAddress != "" {
		entry.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		entry.UserAgent = &meta.UserAgent
	}
	recorder.Record(ctx, entry)
}

func strPtr(s string) *string {
	return &s
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
