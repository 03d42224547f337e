package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for creators and company staff.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CompanyID == "" || req.CategoryID == "" || req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("company_id, category_id, title, description required", nil)
	}

	input := service.TicketCreateInput{
		CompanyID:   req.CompanyID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal, input, requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	input := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), principal, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, nil)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Title:      req.Title,
		CategoryID: req.CategoryID,
		Priority:   req.Priority,
	}
	ticket, err := h.service.UpdateTicket(c.Context(), principal, c.Params("id"), input, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.Context(), principal, c.Params("id"), requestMeta(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResolveTicket POST /tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	return h.statusAction(c, h.service.ResolveTicket)
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	return h.statusAction(c, h.service.CloseTicket)
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	return h.statusAction(c, h.service.ReopenTicket)
}

// ReassignTicket POST /tickets/:id/reassign.
func (h *TicketsHandler) ReassignTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ReassignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	ticket, err := h.service.ReassignTicket(c.Context(), principal, c.Params("id"), req.AgentID, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// CreateCategory POST /companies/:id/categories.
func (h *TicketsHandler) CreateCategory(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.CreateCategory(c.Context(), principal, c.Params("id"), req.Name, requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /companies/:id/categories.
func (h *TicketsHandler) ListCategories(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	categories, err := h.service.ListCategories(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *TicketsHandler) statusAction(c *fiber.Ctx, fn func(context.Context, *authz.Principal, string, audit.RequestMeta) (*domain.Ticket, error)) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := fn(c.Context(), principal, c.Params("id"), requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{}
	if companyID := c.Query("company_id"); companyID != "" {
		input.CompanyID = &companyID
	}
	for _, part := range splitCSV(c.Query("status")) {
		input.Statuses = append(input.Statuses, domain.TicketStatus(strings.ToUpper(part)))
	}
	for _, part := range splitCSV(c.Query("priority")) {
		input.Priorities = append(input.Priorities, domain.TicketPriority(strings.ToUpper(part)))
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		input.SearchTerm = &term
	}
	input.CreatedFrom = parseTime(c.Query("created_from"))
	input.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	input.Offset = (page - 1) * pageSize
	input.Limit = pageSize
	return input
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                     ticket.ID,
		TicketCode:             ticket.TicketCode,
		CompanyID:              ticket.CompanyID,
		CategoryID:             ticket.CategoryID,
		OwnerAgentID:           ticket.OwnerAgentID,
		Title:                  ticket.Title,
		Status:                 ticket.Status,
		Priority:               ticket.Priority,
		LastResponseAuthorType: ticket.LastResponseAuthorType,
		CreatedAt:              ticket.CreatedAt,
		UpdatedAt:              ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, responses []domain.TicketResponse) dto.TicketDetailResponse {
	items := make([]dto.ResponseItem, 0, len(responses))
	for i := range responses {
		items = append(items, responseItem(&responses[i]))
	}
	return dto.TicketDetailResponse{
		ID:                     ticket.ID,
		TicketCode:             ticket.TicketCode,
		CompanyID:              ticket.CompanyID,
		CategoryID:             ticket.CategoryID,
		CreatedByUserID:        ticket.CreatedByUserID,
		OwnerAgentID:           ticket.OwnerAgentID,
		Title:                  ticket.Title,
		Description:            ticket.Description,
		Status:                 ticket.Status,
		Priority:               ticket.Priority,
		LastResponseAuthorType: ticket.LastResponseAuthorType,
		FirstResponseAt:        ticket.FirstResponseAt,
		ResolvedAt:             ticket.ResolvedAt,
		CreatedAt:              ticket.CreatedAt,
		UpdatedAt:              ticket.UpdatedAt,
		Responses:              items,
	}
}

func responseItem(resp *domain.TicketResponse) dto.ResponseItem {
	attachments := make([]dto.AttachmentResponse, 0, len(resp.Attachments))
	for _, att := range resp.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return dto.ResponseItem{
		ID:          resp.ID,
		TicketID:    resp.TicketID,
		AuthorID:    resp.AuthorID,
		AuthorType:  resp.AuthorType,
		Content:     resp.Content,
		Attachments: attachments,
		CreatedAt:   resp.CreatedAt,
	}
}

func categoryResponse(category *domain.TicketCategory) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        category.ID,
		CompanyID: category.CompanyID,
		Name:      category.Name,
		IsActive:  category.IsActive,
	}
}
