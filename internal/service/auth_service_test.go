package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type authFixture struct {
	svc    *AuthService
	users  *fakeUserRepo
	roles  *fakeRoleRepo
	resets *fakeResetRepo
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	resets := newFakeResetRepo()
	svc := NewAuthService(AuthDependencies{
		UserRepo:   users,
		RoleRepo:   roles,
		ResetRepo:  resets,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		BcryptCost: 4, // keep the test suite fast
	})
	return &authFixture{svc: svc, users: users, roles: roles, resets: resets}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with USER role and token", func(t *testing.T) {
		f := newAuthFixture()
		result, err := f.svc.Register(ctx, RegisterInput{
			Name:     "Jordan",
			Email:    " Jordan@Example.com ",
			Password: "hunter2hunter2",
		}, testMeta())
		require.NoError(t, err)
		assert.Equal(t, "jordan@example.com", result.User.Email)
		assert.Equal(t, domain.UserStatusActive, result.User.Status)
		assert.NotEmpty(t, result.Token)
		assert.True(t, result.ExpiresAt.After(time.Now()))
		assert.NotEqual(t, "hunter2hunter2", result.User.PasswordHash)

		grant, err := f.roles.Find(ctx, result.User.ID, domain.RoleUser, nil)
		require.NoError(t, err)
		assert.True(t, grant.Active())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		f := newAuthFixture()
		in := RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}
		_, err := f.svc.Register(ctx, in, testMeta())
		require.NoError(t, err)

		_, err = f.svc.Register(ctx, in, testMeta())
		assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "j@example.com", Password: "short"}, testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}, testMeta())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		result, err := f.svc.Login(ctx, "Jordan@Example.com", "hunter2hunter2", testMeta())
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, badPassword := f.svc.Login(ctx, "jordan@example.com", "wrong-password", testMeta())
		_, unknownEmail := f.svc.Login(ctx, "nobody@example.com", "hunter2hunter2", testMeta())

		assert.Equal(t, apperrors.CodeAuthenticationRequired, apperrors.CodeOf(badPassword))
		assert.Equal(t, badPassword.Error(), unknownEmail.Error())
	})

	t.Run("suspended account cannot log in", func(t *testing.T) {
		user, err := f.users.GetByEmail(ctx, "jordan@example.com")
		require.NoError(t, err)
		require.NoError(t, f.users.UpdateStatus(ctx, user.ID, domain.UserStatusSuspended))
		defer func() { _ = f.users.UpdateStatus(ctx, user.ID, domain.UserStatusActive) }()

		_, err = f.svc.Login(ctx, "jordan@example.com", "hunter2hunter2", testMeta())
		assert.Equal(t, apperrors.CodeAuthenticationRequired, apperrors.CodeOf(err))
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}, testMeta())
		require.NoError(t, err)

		reset, err := f.svc.RequestPasswordReset(ctx, "jordan@example.com")
		require.NoError(t, err)
		require.NotNil(t, reset)

		require.NoError(t, f.svc.ConfirmPasswordReset(ctx, reset.Token, "newpassword123", testMeta()))

		_, err = f.svc.Login(ctx, "jordan@example.com", "newpassword123", testMeta())
		require.NoError(t, err)
		_, err = f.svc.Login(ctx, "jordan@example.com", "hunter2hunter2", testMeta())
		require.Error(t, err)
	})

	t.Run("unknown email succeeds quietly", func(t *testing.T) {
		f := newAuthFixture()
		reset, err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, reset)
	})

	t.Run("token is single-use", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}, testMeta())
		require.NoError(t, err)
		reset, err := f.svc.RequestPasswordReset(ctx, "jordan@example.com")
		require.NoError(t, err)

		require.NoError(t, f.svc.ConfirmPasswordReset(ctx, reset.Token, "newpassword123", testMeta()))
		err = f.svc.ConfirmPasswordReset(ctx, reset.Token, "anotherpass456", testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		f := newAuthFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}, testMeta())
		require.NoError(t, err)
		reset, err := f.svc.RequestPasswordReset(ctx, "jordan@example.com")
		require.NoError(t, err)

		f.resets.mu.Lock()
		stored := f.resets.resets[reset.Token]
		stored.ExpiresAt = time.Now().Add(-time.Minute)
		f.resets.resets[reset.Token] = stored
		f.resets.mu.Unlock()

		err = f.svc.ConfirmPasswordReset(ctx, reset.Token, "newpassword123", testMeta())
		assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	result, err := f.svc.Register(ctx, RegisterInput{Name: "Jordan", Email: "jordan@example.com", Password: "hunter2hunter2"}, testMeta())
	require.NoError(t, err)
	p := &authz.Principal{User: result.User}

	t.Run("wrong current password", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, p, "not-it", "newpassword123", testMeta())
		assert.Equal(t, apperrors.CodeAuthenticationRequired, apperrors.CodeOf(err))
	})

	t.Run("updates the hash", func(t *testing.T) {
		require.NoError(t, f.svc.ChangePassword(ctx, p, "hunter2hunter2", "newpassword123", testMeta()))
		_, err := f.svc.Login(ctx, "jordan@example.com", "newpassword123", testMeta())
		require.NoError(t, err)
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	userID := f.users.seed(domain.User{Name: "Jordan", Email: "jordan@example.com", Status: domain.UserStatusActive})

	t.Run("self", func(t *testing.T) {
		user, err := f.svc.GetProfile(ctx, principalFor(userID), userID)
		require.NoError(t, err)
		assert.Equal(t, "jordan@example.com", user.Email)
	})

	t.Run("platform admin", func(t *testing.T) {
		_, err := f.svc.GetProfile(ctx, platformAdmin(), userID)
		require.NoError(t, err)
	})

	t.Run("other users are denied", func(t *testing.T) {
		_, err := f.svc.GetProfile(ctx, principalFor("usr-99"), userID)
		assert.Equal(t, apperrors.CodeInsufficientPermissions, apperrors.CodeOf(err))
	})
}
