package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RolesHandler manages role assignment endpoints.
type RolesHandler struct {
	service *service.RoleService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roleService *service.RoleService) *RolesHandler {
	return &RolesHandler{service: roleService}
}

// AssignRole POST /roles.
func (h *RolesHandler) AssignRole(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RoleAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.RoleCode == "" {
		return apperrors.NewValidationError("user_id and role_code required", nil)
	}

	assignment, err := h.service.Assign(c.Context(), principal, service.RoleAssignInput{
		UserID:    req.UserID,
		RoleCode:  req.RoleCode,
		CompanyID: req.CompanyID,
	}, requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": roleAssignmentResponse(assignment)})
}

// RevokeRole DELETE /roles/:id.
func (h *RolesHandler) RevokeRole(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RoleRevokeRequest
	_ = c.BodyParser(&req)

	if err := h.service.Revoke(c.Context(), principal, c.Params("id"), req.Reason, requestMeta(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListUserRoles GET /users/:id/roles.
func (h *RolesHandler) ListUserRoles(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	assignments, err := h.service.ListForUser(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roleAssignmentResponses(assignments)})
}

// ListCompanyRoles GET /companies/:id/roles.
func (h *RolesHandler) ListCompanyRoles(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	assignments, err := h.service.ListForCompany(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": roleAssignmentResponses(assignments)})
}

func roleAssignmentResponse(assignment *domain.RoleAssignment) dto.RoleAssignmentResponse {
	return dto.RoleAssignmentResponse{
		ID:         assignment.ID,
		UserID:     assignment.UserID,
		RoleCode:   assignment.RoleCode,
		CompanyID:  assignment.CompanyID,
		IsActive:   assignment.IsActive,
		AssignedAt: assignment.AssignedAt,
		RevokedAt:  assignment.RevokedAt,
	}
}

func roleAssignmentResponses(assignments []domain.RoleAssignment) []dto.RoleAssignmentResponse {
	items := make([]dto.RoleAssignmentResponse, 0, len(assignments))
	for i := range assignments {
		items = append(items, roleAssignmentResponse(&assignments[i]))
	}
	return items
}
