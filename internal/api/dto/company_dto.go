package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// OnboardingSubmitRequest is a prospective tenant's application.
type OnboardingSubmitRequest struct {
	CompanyName string `json:"company_name"`
	AdminEmail  string `json:"admin_email"`
	Message     string `json:"message"`
}

// OnboardingReviewRequest payload. Approvals may carry a note; rejections
// must carry a reason.
type OnboardingReviewRequest struct {
	Note   *string `json:"note"`
	Reason string  `json:"reason"`
}

// OnboardingRequestResponse response.
type OnboardingRequestResponse struct {
	ID              string                  `json:"id"`
	CompanyName     string                  `json:"company_name"`
	AdminEmail      string                  `json:"admin_email"`
	Message         string                  `json:"message"`
	Status          domain.OnboardingStatus `json:"status"`
	ReviewedBy      *string                 `json:"reviewed_by"`
	ReviewedAt      *time.Time              `json:"reviewed_at"`
	RejectionReason *string                 `json:"rejection_reason"`
	CompanyID       *string                 `json:"company_id"`
	CreatedAt       time.Time               `json:"created_at"`
}

// CompanyResponse response.
type CompanyResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Status    domain.CompanyStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// ActivityEntryResponse response.
type ActivityEntryResponse struct {
	ID         string         `json:"id"`
	UserID     *string        `json:"user_id"`
	Action     string         `json:"action"`
	EntityType *string        `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	IPAddress  *string        `json:"ip_address"`
	CreatedAt  time.Time      `json:"created_at"`
}
