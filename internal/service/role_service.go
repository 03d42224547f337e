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
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RoleService manages role grants and revocations. PLATFORM_ADMIN manages
// every assignment; COMPANY_ADMIN may grant and revoke AGENT within their
// own company only.
type RoleService struct {
	roles      repository.RoleAssignmentRepository
	users      repository.UserRepository
	companies  repository.CompanyRepository
	authorizer *authz.Authorizer
	recorder   *audit.Recorder
}

// RoleDependencies bundles collaborators for the role service.
type RoleDependencies struct {
	RoleRepo    repository.RoleAssignmentRepository
	UserRepo    repository.UserRepository
	CompanyRepo repository.CompanyRepository
	Authorizer  *authz.Authorizer
	Recorder    *audit.Recorder
}

// NewRoleService instantiates the service.
func NewRoleService(deps RoleDependencies) *RoleService {
	return &RoleService{
		roles:      deps.RoleRepo,
		users:      deps.UserRepo,
		companies:  deps.CompanyRepo,
		authorizer: deps.Authorizer,
		recorder:   deps.Recorder,
	}
}

// RoleAssignInput describes a grant request.
type RoleAssignInput struct {
	UserID    string
	RoleCode  domain.RoleCode
	CompanyID *string
}

// Assign grants a role. Company-scoped roles must name a company, global
// roles must not, and duplicate active grants are rejected.
func (s *RoleService) Assign(ctx context.Context, p *authz.Principal, in RoleAssignInput, meta audit.RequestMeta) (*domain.RoleAssignment, error) {
	if !in.RoleCode.Valid() {
		return nil, apperrors.NewValidationError("unknown role code", map[string]any{"role_code": in.RoleCode})
	}
	if in.RoleCode.RequiresCompany() {
		if in.CompanyID == nil || *in.CompanyID == "" {
			return nil, apperrors.NewValidationError("this role must be scoped to a company", map[string]any{"role_code": in.RoleCode})
		}
	} else if in.CompanyID != nil {
		return nil, apperrors.NewValidationError("this role cannot be scoped to a company", map[string]any{"role_code": in.RoleCode})
	}
	if err := s.authorizeManage(p, in.RoleCode, in.CompanyID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewValidationError("user account is not active", map[string]any{"user_id": user.ID})
	}
	if in.CompanyID != nil {
		company, err := s.companies.GetByID(ctx, *in.CompanyID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if company.Status != domain.CompanyStatusActive {
			return nil, apperrors.NewValidationError("company is not active", map[string]any{"company_id": company.ID})
		}
	}

	existing, err := s.roles.Find(ctx, in.UserID, in.RoleCode, in.CompanyID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	grantedBy := p.UserID()
	var assignment *domain.RoleAssignment
	if existing != nil {
		if existing.Active() {
			return nil, apperrors.NewConflict("role is already assigned", map[string]any{
				"user_id":   in.UserID,
				"role_code": in.RoleCode,
			})
		}
		// A revoked grant keeps its row, so re-granting reactivates it
		// instead of colliding with the uniqueness constraint.
		assignment, err = s.roles.Reactivate(ctx, existing.ID, &grantedBy)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	} else {
		assignment = &domain.RoleAssignment{
			UserID:     in.UserID,
			RoleCode:   in.RoleCode,
			CompanyID:  in.CompanyID,
			IsActive:   true,
			AssignedBy: &grantedBy,
		}
		if err := s.roles.Create(ctx, assignment); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	newValues := map[string]any{"user_id": in.UserID, "role_code": in.RoleCode}
	if in.CompanyID != nil {
		newValues["company_id"] = *in.CompanyID
	}
	recordActivity(ctx, s.recorder, p, "role.assigned", "role_assignment", assignment.ID, nil, newValues, meta)
	return assignment, nil
}

// Revoke soft-revokes an assignment, keeping the row for the audit trail.
func (s *RoleService) Revoke(ctx context.Context, p *authz.Principal, assignmentID, reason string, meta audit.RequestMeta) error {
	assignment, err := s.roles.GetByID(ctx, assignmentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.authorizeManage(p, assignment.RoleCode, assignment.CompanyID); err != nil {
		return err
	}
	if !assignment.Active() {
		return apperrors.NewInvalidStateTransition("role assignment is already revoked", map[string]any{
			"assignment_id": assignment.ID,
		})
	}

	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}
	if err := s.roles.Revoke(ctx, assignment.ID, time.Now(), reasonPtr); err != nil {
		return apperrors.MapError(err)
	}

	recordActivity(ctx, s.recorder, p, "role.revoked", "role_assignment", assignment.ID,
		map[string]any{"is_active": true},
		map[string]any{"is_active": false, "reason": reason}, meta)
	return nil
}

// ListForUser returns a user's active assignments. Users may inspect their
// own; platform admins anyone's.
func (s *RoleService) ListForUser(ctx context.Context, p *authz.Principal, userID string) ([]domain.RoleAssignment, error) {
	if p.UserID() != userID && !s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil, apperrors.NewForbidden()
	}
	assignments, err := s.roles.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assignments, nil
}

// ListForCompany returns a company's assignments for its admins and
// platform admins.
func (s *RoleService) ListForCompany(ctx context.Context, p *authz.Principal, companyID string) ([]domain.RoleAssignment, error) {
	if !s.authorizer.HasRoleInCompany(p, domain.RoleCompanyAdmin, companyID) {
		return nil, apperrors.NewForbidden()
	}
	assignments, err := s.roles.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assignments, nil
}

// authorizeManage decides whether the principal may grant or revoke the
// given role. Company admins only ever manage AGENT inside their company.
func (s *RoleService) authorizeManage(p *authz.Principal, code domain.RoleCode, companyID *string) error {
	if s.authorizer.HasRole(p, domain.RolePlatformAdmin) {
		return nil
	}
	if code == domain.RoleAgent && companyID != nil &&
		s.authorizer.HasRoleInCompany(p, domain.RoleCompanyAdmin, *companyID) {
		return nil
	}
	return apperrors.NewForbidden()
}
