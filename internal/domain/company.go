package domain

import "time"

// CompanyStatus enumerates tenant lifecycle states.
type CompanyStatus string

const (
	CompanyStatusPending   CompanyStatus = "PENDING"
	CompanyStatusActive    CompanyStatus = "ACTIVE"
	CompanyStatusRejected  CompanyStatus = "REJECTED"
	CompanyStatusSuspended CompanyStatus = "SUSPENDED"
)

// Company is the tenant entity. Tickets, agents and company admins are
// scoped to exactly one company.
type Company struct {
	ID        string
	Name      string
	Status    CompanyStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyOnboardingDetails preserves the original onboarding request
// metadata for an approved company, kept apart from the operational record.
type CompanyOnboardingDetails struct {
	ID             string
	CompanyID      string
	SubmitterEmail string
	Message        string
	ReviewedBy     string
	ReviewedAt     time.Time
	ReviewNote     *string
}

// OnboardingStatus enumerates review states for an onboarding request.
type OnboardingStatus string

const (
	OnboardingStatusPending  OnboardingStatus = "PENDING"
	OnboardingStatusApproved OnboardingStatus = "APPROVED"
	OnboardingStatusRejected OnboardingStatus = "REJECTED"
)

// OnboardingRequest is a prospective tenant's application. Approval
// materializes a Company; rejection leaves only the reviewed request.
type OnboardingRequest struct {
	ID              string
	CompanyName     string
	AdminEmail      string
	Message         string
	Status          OnboardingStatus
	ReviewedBy      *string
	ReviewedAt      *time.Time
	RejectionReason *string
	CompanyID       *string
	CreatedAt       time.Time
}
