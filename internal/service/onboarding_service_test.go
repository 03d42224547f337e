package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type onboardingFixture struct {
	svc        *OnboardingService
	requests   *fakeOnboardingRepo
	companies  *fakeCompanyRepo
	users      *fakeUserRepo
	roles      *fakeRoleRepo
	dispatcher *capturingDispatcher
}

func newOnboardingFixture() *onboardingFixture {
	requests := newFakeOnboardingRepo()
	companies := newFakeCompanyRepo()
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	dispatcher := &capturingDispatcher{}
	svc := NewOnboardingService(OnboardingDependencies{
		RequestRepo: requests,
		CompanyRepo: companies,
		UserRepo:    users,
		RoleRepo:    roles,
		Authorizer:  authz.NewAuthorizer(),
		Dispatcher:  dispatcher,
	})
	return &onboardingFixture{
		svc:        svc,
		requests:   requests,
		companies:  companies,
		users:      users,
		roles:      roles,
		dispatcher: dispatcher,
	}
}

func platformAdmin() *authz.Principal {
	return principalFor("admin-1", activeRole(domain.RolePlatformAdmin, ""))
}

func TestSubmitOnboarding(t *testing.T) {
	ctx := context.Background()

	t.Run("files a pending request", func(t *testing.T) {
		f := newOnboardingFixture()
		req, err := f.svc.Submit(ctx, OnboardingSubmitInput{
			CompanyName: "  Acme Corp ",
			AdminEmail:  " Admin@Acme.example ",
			Message:     "we need support tooling",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OnboardingStatusPending, req.Status)
		assert.Equal(t, "Acme Corp", req.CompanyName)
		assert.Equal(t, "admin@acme.example", req.AdminEmail)
	})

	t.Run("one pending request per email", func(t *testing.T) {
		f := newOnboardingFixture()
		_, err := f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "Acme", AdminEmail: "admin@acme.example"})
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "Acme Again", AdminEmail: "admin@acme.example"})
		assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		f := newOnboardingFixture()
		_, err := f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "", AdminEmail: "admin@acme.example"})
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

		_, err = f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "Acme", AdminEmail: "not-an-email"})
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})
}

func TestApproveOnboarding(t *testing.T) {
	ctx := context.Background()

	submit := func(f *onboardingFixture) *domain.OnboardingRequest {
		req, err := f.svc.Submit(ctx, OnboardingSubmitInput{
			CompanyName: "Acme",
			AdminEmail:  "admin@acme.example",
			Message:     "please",
		})
		require.NoError(t, err)
		return req
	}

	t.Run("creates company, snapshot and admin grant", func(t *testing.T) {
		f := newOnboardingFixture()
		req := submit(f)
		adminID := f.users.seed(domain.User{Email: "admin@acme.example", Status: domain.UserStatusActive})
		note := "verified over the phone"

		company, err := f.svc.Approve(ctx, platformAdmin(), req.ID, &note, testMeta())
		require.NoError(t, err)
		assert.Equal(t, domain.CompanyStatusActive, company.Status)
		assert.Equal(t, "Acme", company.Name)

		details, err := f.companies.GetOnboardingDetails(ctx, company.ID)
		require.NoError(t, err)
		assert.Equal(t, "admin@acme.example", details.SubmitterEmail)
		assert.Equal(t, "admin-1", details.ReviewedBy)
		require.NotNil(t, details.ReviewNote)
		assert.Equal(t, note, *details.ReviewNote)

		grant, err := f.roles.Find(ctx, adminID, domain.RoleCompanyAdmin, &company.ID)
		require.NoError(t, err)
		assert.True(t, grant.Active())

		reviewed, err := f.requests.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OnboardingStatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.CompanyID)
		assert.Equal(t, company.ID, *reviewed.CompanyID)

		assert.Len(t, f.dispatcher.ofType(events.EventCompanyApproved), 1)
	})

	t.Run("requires a registered active admin", func(t *testing.T) {
		f := newOnboardingFixture()
		req := submit(f)

		_, err := f.svc.Approve(ctx, platformAdmin(), req.ID, nil, testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

		f.users.seed(domain.User{Email: "admin@acme.example", Status: domain.UserStatusSuspended})
		_, err = f.svc.Approve(ctx, platformAdmin(), req.ID, nil, testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})

	t.Run("review is single-shot", func(t *testing.T) {
		f := newOnboardingFixture()
		req := submit(f)
		f.users.seed(domain.User{Email: "admin@acme.example", Status: domain.UserStatusActive})

		_, err := f.svc.Approve(ctx, platformAdmin(), req.ID, nil, testMeta())
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, platformAdmin(), req.ID, nil, testMeta())
		assert.Equal(t, apperrors.CodeInvalidStateTransition, apperrors.CodeOf(err))

		_, err = f.svc.Reject(ctx, platformAdmin(), req.ID, "changed our mind", testMeta())
		assert.Equal(t, apperrors.CodeInvalidStateTransition, apperrors.CodeOf(err))
	})

	t.Run("platform admin only", func(t *testing.T) {
		f := newOnboardingFixture()
		req := submit(f)
		companyAdmin := principalFor("usr-2", activeRole(domain.RoleCompanyAdmin, "co-other"))

		_, err := f.svc.Approve(ctx, companyAdmin, req.ID, nil, testMeta())
		assert.Equal(t, apperrors.CodeInsufficientPermissions, apperrors.CodeOf(err))
	})
}

func TestRejectOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	req, err := f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "Acme", AdminEmail: "admin@acme.example"})
	require.NoError(t, err)

	t.Run("reason is mandatory", func(t *testing.T) {
		_, err := f.svc.Reject(ctx, platformAdmin(), req.ID, "   ", testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})

	t.Run("records the rejection", func(t *testing.T) {
		rejected, err := f.svc.Reject(ctx, platformAdmin(), req.ID, "unverifiable business", testMeta())
		require.NoError(t, err)
		assert.Equal(t, domain.OnboardingStatusRejected, rejected.Status)
		require.NotNil(t, rejected.RejectionReason)
		assert.Equal(t, "unverifiable business", *rejected.RejectionReason)
		assert.Nil(t, rejected.CompanyID)
	})

	t.Run("rejected email may submit again", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, OnboardingSubmitInput{CompanyName: "Acme", AdminEmail: "admin@acme.example"})
		require.NoError(t, err)
	})
}

func TestCompanyLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("suspend and reactivate", func(t *testing.T) {
		f := newOnboardingFixture()
		companyID := f.companies.seed(domain.Company{Name: "Acme", Status: domain.CompanyStatusActive})

		require.NoError(t, f.svc.SuspendCompany(ctx, platformAdmin(), companyID, testMeta()))
		company, err := f.companies.GetByID(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, domain.CompanyStatusSuspended, company.Status)

		require.NoError(t, f.svc.ActivateCompany(ctx, platformAdmin(), companyID, testMeta()))
		company, err = f.companies.GetByID(ctx, companyID)
		require.NoError(t, err)
		assert.Equal(t, domain.CompanyStatusActive, company.Status)
	})

	t.Run("suspending a suspended company is a state error", func(t *testing.T) {
		f := newOnboardingFixture()
		companyID := f.companies.seed(domain.Company{Name: "Acme", Status: domain.CompanyStatusSuspended})

		err := f.svc.SuspendCompany(ctx, platformAdmin(), companyID, testMeta())
		assert.Equal(t, apperrors.CodeInvalidStateTransition, apperrors.CodeOf(err))
	})

	t.Run("company visibility", func(t *testing.T) {
		f := newOnboardingFixture()
		companyID := f.companies.seed(domain.Company{Name: "Acme", Status: domain.CompanyStatusActive})

		staff := principalFor("agent-1", activeRole(domain.RoleAgent, companyID))
		_, err := f.svc.GetCompany(ctx, staff, companyID)
		require.NoError(t, err)

		outsider := principalFor("usr-9")
		_, err = f.svc.GetCompany(ctx, outsider, companyID)
		assert.Equal(t, apperrors.CodeInsufficientPermissions, apperrors.CodeOf(err))
	})
}
