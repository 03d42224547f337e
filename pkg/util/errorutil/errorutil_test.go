package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("passes domain errors through", func(t *testing.T) {
		err := NewForbidden()
		mapped := ToDomainError(err)
		assert.Equal(t, CodeInsufficientPermissions, mapped.Code)
		assert.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
	})

	t.Run("maps pgx.ErrNoRows to not found", func(t *testing.T) {
		mapped := ToDomainError(pgx.ErrNoRows)
		assert.Equal(t, CodeNotFound, mapped.Code)
		assert.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
	})

	t.Run("wraps foreign errors as internal", func(t *testing.T) {
		cause := errors.New("connection refused")
		mapped := ToDomainError(cause)
		assert.Equal(t, CodeInternalError, mapped.Code)
		assert.Equal(t, "internal server error", mapped.Message)
		assert.True(t, errors.Is(mapped, cause))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), CodeValidationFailed, http.StatusBadRequest},
		{NewNotFound("ticket", nil), CodeNotFound, http.StatusNotFound},
		{NewUnauthorized("nope"), CodeAuthenticationRequired, http.StatusUnauthorized},
		{NewForbidden(), CodeInsufficientPermissions, http.StatusForbidden},
		{NewInvalidStateTransition("wrong state", nil), CodeInvalidStateTransition, http.StatusConflict},
		{NewNotTicketOwner(), CodeNotTicketOwner, http.StatusForbidden},
		{NewRatingExists("tkt-1"), CodeRatingExists, http.StatusConflict},
		{NewConflict("dup", nil), CodeConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		mapped := ToDomainError(tc.err)
		assert.Equal(t, tc.code, mapped.Code)
		assert.Equal(t, tc.status, mapped.HTTPStatus)
	}
}

func TestForbiddenMessageIsGeneric(t *testing.T) {
	// Authorization failures never leak which check failed.
	mapped := ToDomainError(NewForbidden())
	require.Equal(t, "insufficient permissions", mapped.Message)
	assert.Nil(t, mapped.Details)
}

func TestRatingExistsDetails(t *testing.T) {
	mapped := ToDomainError(NewRatingExists("tkt-9"))
	assert.Equal(t, "tkt-9", mapped.Details["ticket_id"])
}
