package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CompaniesHandler manages onboarding requests and tenant administration.
type CompaniesHandler struct {
	service *service.OnboardingService
}

// NewCompaniesHandler constructs handler.
func NewCompaniesHandler(onboardingService *service.OnboardingService) *CompaniesHandler {
	return &CompaniesHandler{service: onboardingService}
}

// SubmitOnboarding POST /onboarding. Unauthenticated.
func (h *CompaniesHandler) SubmitOnboarding(c *fiber.Ctx) error {
	var req dto.OnboardingSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.Submit(c.Context(), service.OnboardingSubmitInput{
		CompanyName: req.CompanyName,
		AdminEmail:  req.AdminEmail,
		Message:     req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": onboardingResponse(request)})
}

// ListOnboarding GET /admin/onboarding.
func (h *CompaniesHandler) ListOnboarding(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var statuses []domain.OnboardingStatus
	for _, part := range splitCSV(c.Query("status")) {
		statuses = append(statuses, domain.OnboardingStatus(part))
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	requests, err := h.service.ListRequests(c.Context(), principal, statuses, page, pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.OnboardingRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, onboardingResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOnboarding GET /admin/onboarding/:id.
func (h *CompaniesHandler) GetOnboarding(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	request, err := h.service.GetRequest(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": onboardingResponse(request)})
}

// ApproveOnboarding POST /admin/onboarding/:id/approve.
func (h *CompaniesHandler) ApproveOnboarding(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OnboardingReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	company, err := h.service.Approve(c.Context(), principal, c.Params("id"), req.Note, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": companyResponse(company)})
}

// RejectOnboarding POST /admin/onboarding/:id/reject.
func (h *CompaniesHandler) RejectOnboarding(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OnboardingReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.service.Reject(c.Context(), principal, c.Params("id"), req.Reason, requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": onboardingResponse(request)})
}

// GetCompany GET /companies/:id.
func (h *CompaniesHandler) GetCompany(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	company, err := h.service.GetCompany(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": companyResponse(company)})
}

// ListCompanies GET /admin/companies.
func (h *CompaniesHandler) ListCompanies(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var statuses []domain.CompanyStatus
	for _, part := range splitCSV(c.Query("status")) {
		statuses = append(statuses, domain.CompanyStatus(part))
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	companies, err := h.service.ListCompanies(c.Context(), principal, statuses, page, pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		items = append(items, companyResponse(&companies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SuspendCompany POST /admin/companies/:id/suspend.
func (h *CompaniesHandler) SuspendCompany(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.SuspendCompany(c.Context(), principal, c.Params("id"), requestMeta(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "suspended"}})
}

// ActivateCompany POST /admin/companies/:id/activate.
func (h *CompaniesHandler) ActivateCompany(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.ActivateCompany(c.Context(), principal, c.Params("id"), requestMeta(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "active"}})
}

func onboardingResponse(req *domain.OnboardingRequest) dto.OnboardingRequestResponse {
	return dto.OnboardingRequestResponse{
		ID:              req.ID,
		CompanyName:     req.CompanyName,
		AdminEmail:      req.AdminEmail,
		Message:         req.Message,
		Status:          req.Status,
		ReviewedBy:      req.ReviewedBy,
		ReviewedAt:      req.ReviewedAt,
		RejectionReason: req.RejectionReason,
		CompanyID:       req.CompanyID,
		CreatedAt:       req.CreatedAt,
	}
}

func companyResponse(company *domain.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:        company.ID,
		Name:      company.Name,
		Status:    company.Status,
		CreatedAt: company.CreatedAt,
	}
}
