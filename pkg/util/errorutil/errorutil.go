package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API clients.
const (
	CodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeNotFound                = "NOT_FOUND"
	CodeInvalidStateTransition  = "INVALID_STATE_TRANSITION"
	CodeNotTicketOwner          = "NOT_TICKET_OWNER"
	CodeRatingExists            = "RATING_EXISTS"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeConflict                = "CONFLICT"
	CodeInternalError           = "INTERNAL_ERROR"
)

// DomainError standardizes application errors. Callers distinguish error
// kinds by Code; HTTPStatus is consumed by the transport layer only.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeAuthenticationRequired, message, http.StatusUnauthorized, nil)
}

// NewForbidden returns the deliberately generic authorization failure. The
// message never states which role or scope check failed.
func NewForbidden() error {
	return NewDomainError(CodeInsufficientPermissions, "insufficient permissions", http.StatusForbidden, nil)
}

// NewInvalidStateTransition reports an operation attempted in the wrong
// lifecycle state.
func NewInvalidStateTransition(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidStateTransition, message, http.StatusConflict, details)
}

// NewNotTicketOwner reports that the actor is not the ticket's creator where
// creatorship is required.
func NewNotTicketOwner() error {
	return NewDomainError(CodeNotTicketOwner, "only the ticket creator may perform this action", http.StatusForbidden, nil)
}

// NewRatingExists reports a duplicate rating attempt.
func NewRatingExists(ticketID string) error {
	return NewDomainError(CodeRatingExists, "ticket already rated", http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError wraps unknown errors while letting DomainErrors pass unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf returns the domain error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) string {
	return ToDomainError(err).Code
}
