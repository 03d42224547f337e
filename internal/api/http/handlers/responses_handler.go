package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ResponsesHandler manages the response thread under a ticket.
type ResponsesHandler struct {
	service *service.ResponseService
}

// NewResponsesHandler constructs handler.
func NewResponsesHandler(responseService *service.ResponseService) *ResponsesHandler {
	return &ResponsesHandler{service: responseService}
}

// CreateResponse POST /tickets/:id/responses.
func (h *ResponsesHandler) CreateResponse(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}

	attachments := make([]service.ResponseAttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.ResponseAttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	response, err := h.service.CreateResponse(c.Context(), principal, c.Params("id"), req.Content, attachments, requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": responseItem(response)})
}

// ListResponses GET /tickets/:id/responses.
func (h *ResponsesHandler) ListResponses(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	responses, err := h.service.ListResponses(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ResponseItem, 0, len(responses))
	for i := range responses {
		items = append(items, responseItem(&responses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
