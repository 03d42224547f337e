package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// OnboardingService runs the company onboarding workflow: anonymous
// submission, platform-admin review, and the resulting tenant lifecycle.
type OnboardingService struct {
	requests   repository.OnboardingRequestRepository
	companies  repository.CompanyRepository
	users      repository.UserRepository
	roles      repository.RoleAssignmentRepository
	authorizer *authz.Authorizer
	dispatcher events.Dispatcher
	recorder   *audit.Recorder
}

// OnboardingDependencies bundles collaborators for the onboarding service.
type OnboardingDependencies struct {
	RequestRepo repository.OnboardingRequestRepository
	CompanyRepo repository.CompanyRepository
	UserRepo    repository.UserRepository
	RoleRepo    repository.RoleAssignmentRepository
	Authorizer  *authz.Authorizer
	Dispatcher  events.Dispatcher
	Recorder    *audit.Recorder
}

// NewOnboardingService instantiates the service.
func NewOnboardingService(deps OnboardingDependencies) *OnboardingService {
	return &OnboardingService{
		requests:   deps.RequestRepo,
		companies:  deps.CompanyRepo,
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		authorizer: deps.Authorizer,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
	}
}

// OnboardingSubmitInput is a prospective tenant's application payload.
type OnboardingSubmitInput struct {
	CompanyName string
	AdminEmail  string
	Message     string
}

// Submit files a new onboarding request. At most one PENDING request may
// exist per submitter email at a time.
func (s *OnboardingService) Submit(ctx context.Context, in OnboardingSubmitInput) (*domain.OnboardingRequest, error) {
	name := strings.TrimSpace(in.CompanyName)
	email := strings.ToLower(strings.TrimSpace(in.AdminEmail))
	if name == "" {
		return nil, apperrors.NewValidationError("company name is required", map[string]any{"field": "company_name"})
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("a valid admin email is required", map[string]any{"field": "admin_email"})
	}

	pending, err := s.requests.HasPendingByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewConflict("a pending onboarding request already exists for this email", map[string]any{
			"admin_email": email,
		})
	}

	req := &domain.OnboardingRequest{
		CompanyName: name,
		AdminEmail:  email,
		Message:     strings.TrimSpace(in.Message),
		Status:      domain.OnboardingStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, nil, "onboarding.submitted", "onboarding_request", req.ID, nil, map[string]any{
		"company_name": req.CompanyName,
		"admin_email":  req.AdminEmail,
	}, audit.RequestMeta{})
	return req, nil
}

// GetRequest loads one onboarding request for review.
func (s *OnboardingService) GetRequest(ctx context.Context, p *authz.Principal, id string) (*domain.OnboardingRequest, error) {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return req, nil
}

// ListRequests pages onboarding requests, optionally filtered by status.
func (s *OnboardingService) ListRequests(ctx context.Context, p *authz.Principal, statuses []domain.OnboardingStatus, page, pageSize int) ([]domain.OnboardingRequest, error) {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	limit, offset := pageBounds(page, pageSize)
	reqs, err := s.requests.List(ctx, statuses, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reqs, nil
}

// Approve materializes an ACTIVE company from a pending request, snapshots
// the request metadata, and grants COMPANY_ADMIN to the designated admin
// user. Reviewing an already-reviewed request fails.
func (s *OnboardingService) Approve(ctx context.Context, p *authz.Principal, requestID string, note *string, meta audit.RequestMeta) (*domain.Company, error) {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if req.Status != domain.OnboardingStatusPending {
		return nil, apperrors.NewInvalidStateTransition("onboarding request has already been reviewed", map[string]any{
			"request_id": req.ID,
			"status":     req.Status,
		})
	}

	admin, err := s.users.GetByEmail(ctx, req.AdminEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("designated admin must register before approval", map[string]any{
				"admin_email": req.AdminEmail,
			})
		}
		return nil, apperrors.MapError(err)
	}
	if admin.Status != domain.UserStatusActive {
		return nil, apperrors.NewValidationError("designated admin account is not active", map[string]any{
			"admin_email": req.AdminEmail,
		})
	}

	now := time.Now()
	company := &domain.Company{
		Name:   req.CompanyName,
		Status: domain.CompanyStatusActive,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, apperrors.MapError(err)
	}

	reviewerID := p.UserID()
	details := &domain.CompanyOnboardingDetails{
		CompanyID:      company.ID,
		SubmitterEmail: req.AdminEmail,
		Message:        req.Message,
		ReviewedBy:     reviewerID,
		ReviewedAt:     now,
		ReviewNote:     note,
	}
	if err := s.companies.CreateOnboardingDetails(ctx, details); err != nil {
		return nil, apperrors.MapError(err)
	}

	assignment := &domain.RoleAssignment{
		UserID:     admin.ID,
		RoleCode:   domain.RoleCompanyAdmin,
		CompanyID:  &company.ID,
		IsActive:   true,
		AssignedBy: &reviewerID,
	}
	if err := s.roles.Create(ctx, assignment); err != nil {
		return nil, apperrors.MapError(err)
	}

	req.Status = domain.OnboardingStatusApproved
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	req.CompanyID = &company.ID
	if err := s.requests.MarkReviewed(ctx, req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidStateTransition("onboarding request has already been reviewed", map[string]any{
				"request_id": req.ID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventCompanyApproved,
		CompanyID: company.ID,
		ActorID:   reviewerID,
		Payload: events.CompanyApprovedPayload{
			CompanyName: company.Name,
			AdminEmail:  req.AdminEmail,
		},
	})
	recordActivity(ctx, s.recorder, p, "onboarding.approved", "onboarding_request", req.ID,
		map[string]any{"status": domain.OnboardingStatusPending},
		map[string]any{"status": domain.OnboardingStatusApproved, "company_id": company.ID}, meta)
	return company, nil
}

// Reject marks a pending request rejected. A reason is mandatory; no
// company materializes.
func (s *OnboardingService) Reject(ctx context.Context, p *authz.Principal, requestID, reason string, meta audit.RequestMeta) (*domain.OnboardingRequest, error) {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("a rejection reason is required", map[string]any{"field": "reason"})
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if req.Status != domain.OnboardingStatusPending {
		return nil, apperrors.NewInvalidStateTransition("onboarding request has already been reviewed", map[string]any{
			"request_id": req.ID,
			"status":     req.Status,
		})
	}

	now := time.Now()
	reviewerID := p.UserID()
	req.Status = domain.OnboardingStatusRejected
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	req.RejectionReason = &reason
	if err := s.requests.MarkReviewed(ctx, req); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidStateTransition("onboarding request has already been reviewed", map[string]any{
				"request_id": req.ID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, p, "onboarding.rejected", "onboarding_request", req.ID,
		map[string]any{"status": domain.OnboardingStatusPending},
		map[string]any{"status": domain.OnboardingStatusRejected, "reason": reason}, meta)
	return req, nil
}

// GetCompany loads one company. Platform admins see every tenant; staff see
// their own.
func (s *OnboardingService) GetCompany(ctx context.Context, p *authz.Principal, id string) (*domain.Company, error) {
	if !s.authorizer.IsCompanyStaff(p, id) && !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

// ListCompanies pages tenants, optionally filtered by status. Platform
// admin only.
func (s *OnboardingService) ListCompanies(ctx context.Context, p *authz.Principal, statuses []domain.CompanyStatus, page, pageSize int) ([]domain.Company, error) {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	limit, offset := pageBounds(page, pageSize)
	companies, err := s.companies.List(ctx, statuses, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return companies, nil
}

// SuspendCompany moves an ACTIVE tenant to SUSPENDED.
func (s *OnboardingService) SuspendCompany(ctx context.Context, p *authz.Principal, id string, meta audit.RequestMeta) error {
	return s.setCompanyStatus(ctx, p, id, domain.CompanyStatusActive, domain.CompanyStatusSuspended, "company.suspended", meta)
}

// ActivateCompany moves a SUSPENDED tenant back to ACTIVE.
func (s *OnboardingService) ActivateCompany(ctx context.Context, p *authz.Principal, id string, meta audit.RequestMeta) error {
	return s.setCompanyStatus(ctx, p, id, domain.CompanyStatusSuspended, domain.CompanyStatusActive, "company.activated", meta)
}

func (s *OnboardingService) setCompanyStatus(ctx context.Context, p *authz.Principal, id string, from, to domain.CompanyStatus, action string, meta audit.RequestMeta) error {
	if !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return apperrors.NewForbidden()
	}
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if company.Status != from {
		return apperrors.NewInvalidStateTransition("company status does not permit this action", map[string]any{
			"company_id":      company.ID,
			"status":          company.Status,
			"required_status": from,
		})
	}
	if err := s.companies.UpdateStatus(ctx, id, to); err != nil {
		return apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, p, action, "company", company.ID,
		map[string]any{"status": from}, map[string]any{"status": to}, meta)
	return nil
}
