package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ActivityHandler exposes paginated activity log reads.
type ActivityHandler struct {
	recorder   *audit.Recorder
	authorizer *authz.Authorizer
}

// NewActivityHandler constructs handler.
func NewActivityHandler(recorder *audit.Recorder, authorizer *authz.Authorizer) *ActivityHandler {
	return &ActivityHandler{recorder: recorder, authorizer: authorizer}
}

// ListUserActivity GET /users/:id/activity. Users read their own trail;
// platform admins anyone's.
func (h *ActivityHandler) ListUserActivity(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	userID := c.Params("id")
	if principal.UserID() != userID && !h.authorizer.HasRole(principal, domain.RolePlatformAdmin) {
		return apperrors.NewForbidden()
	}

	var action, entityType *string
	if v := c.Query("action"); v != "" {
		action = &v
	}
	if v := c.Query("entity_type"); v != "" {
		entityType = &v
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	entries, err := h.recorder.GetUserActivity(c.Context(), userID, action, entityType, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(entries)})
}

// ListEntityActivity GET /admin/activity/:entity_type/:id. Platform admin
// only.
func (h *ActivityHandler) ListEntityActivity(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if !h.authorizer.HasRole(principal, domain.RolePlatformAdmin) {
		return apperrors.NewForbidden()
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	entries, err := h.recorder.GetEntityActivity(c.Context(), c.Params("entity_type"), c.Params("id"), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(entries)})
}

func activityResponses(entries []domain.ActivityLogEntry) []dto.ActivityEntryResponse {
	items := make([]dto.ActivityEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ActivityEntryResponse{
			ID:         entry.ID,
			UserID:     entry.UserID,
			Action:     entry.Action,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			OldValues:  entry.OldValues,
			NewValues:  entry.NewValues,
			IPAddress:  entry.IPAddress,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return items
}
