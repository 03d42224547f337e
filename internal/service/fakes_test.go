package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// The fakes below mirror the SQL repositories closely enough for service
// tests: generated ids, copy-on-read so held pointers do not alias stored
// rows, pgx.ErrNoRows for misses, and the conditional ownership claim from
// the response repository.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	seq     int64
	nextID  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("tkt-%d", r.nextID)
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *ticket
	updated.OwnerAgentID = stored.OwnerAgentID // ownership never moves through Update
	updated.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = updated
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByCode(_ context.Context, code string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TicketCode == code {
			copied := ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CompanyID != nil && ticket.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.CreatedBy != nil && ticket.CreatedByUserID != *filter.CreatedBy {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(ticket.Title), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) NextSequence(_ context.Context, _ int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq, nil
}

func (r *fakeTicketRepo) Reassign(_ context.Context, ticketID, agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.OwnerAgentID = &agentID
	ticket.UpdatedAt = time.Now()
	r.tickets[ticketID] = ticket
	return nil
}

func (r *fakeTicketRepo) AutoCloseResolvedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closed []string
	for id, ticket := range r.tickets {
		if ticket.Status != domain.TicketStatusResolved || ticket.ResolvedAt == nil {
			continue
		}
		if ticket.ResolvedAt.After(cutoff) {
			continue
		}
		ticket.Status = domain.TicketStatusClosed
		r.tickets[id] = ticket
		closed = append(closed, id)
	}
	return closed, nil
}

// seed stores a ticket directly, bypassing Create. Returns the stored id.
func (r *fakeTicketRepo) seed(ticket domain.Ticket) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		r.nextID++
		ticket.ID = fmt.Sprintf("tkt-%d", r.nextID)
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	r.tickets[ticket.ID] = ticket
	return ticket.ID
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	tickets   *fakeTicketRepo
	responses []domain.TicketResponse
	nextID    int
}

func newFakeResponseRepo(tickets *fakeTicketRepo) *fakeResponseRepo {
	return &fakeResponseRepo{tickets: tickets}
}

// Create mirrors the transactional repository: an agent response claims an
// unowned ticket exactly once; later agent replies only advance the
// conversation state.
func (r *fakeResponseRepo) Create(_ context.Context, resp *domain.TicketResponse, effect repository.ResponseWriteEffect) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets.mu.Lock()
	defer r.tickets.mu.Unlock()

	ticket, ok := r.tickets.tickets[resp.TicketID]
	if !ok {
		return false, pgx.ErrNoRows
	}

	r.nextID++
	resp.ID = fmt.Sprintf("resp-%d", r.nextID)
	resp.CreatedAt = time.Now()
	r.responses = append(r.responses, *resp)

	claimed := false
	now := time.Now()
	switch resp.AuthorType {
	case domain.AuthorTypeAgent:
		live := ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusPending
		if ticket.OwnerAgentID == nil && live {
			agentID := resp.AuthorID
			ticket.OwnerAgentID = &agentID
			ticket.Status = domain.TicketStatusPending
			ticket.FirstResponseAt = &now
			claimed = true
		} else if ticket.Status == domain.TicketStatusOpen {
			ticket.Status = domain.TicketStatusPending
		}
		ticket.LastResponseAuthorType = domain.AuthorTypeAgent
	default:
		if effect.ReopenFromPending && ticket.Status == domain.TicketStatusPending {
			ticket.Status = domain.TicketStatusOpen
		}
		ticket.LastResponseAuthorType = domain.AuthorTypeUser
	}
	ticket.UpdatedAt = now
	r.tickets.tickets[ticket.ID] = ticket
	return claimed, nil
}

func (r *fakeResponseRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketResponse
	for _, resp := range r.responses {
		if resp.TicketID == ticketID {
			result = append(result, resp)
		}
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments []domain.ResponseAttachment
	nextID      int
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.ResponseAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	attachment.ID = fmt.Sprintf("att-%d", r.nextID)
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByResponse(_ context.Context, responseID string) ([]domain.ResponseAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ResponseAttachment
	for _, att := range r.attachments {
		if att.ResponseID == responseID {
			result = append(result, att)
		}
	}
	return result, nil
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]domain.TicketRating // keyed by ticket id
	nextID  int
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: map[string]domain.TicketRating{}}
}

func (r *fakeRatingRepo) Create(_ context.Context, rating *domain.TicketRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rating.ID = fmt.Sprintf("rat-%d", r.nextID)
	now := time.Now()
	rating.CreatedAt = now
	rating.UpdatedAt = now
	r.ratings[rating.TicketID] = *rating
	return nil
}

func (r *fakeRatingRepo) GetByTicket(_ context.Context, ticketID string) (*domain.TicketRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rating, ok := r.ratings[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := rating
	return &copied, nil
}

func (r *fakeRatingRepo) Update(_ context.Context, rating *domain.TicketRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.ratings[rating.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Rating = rating.Rating
	stored.Comment = rating.Comment
	stored.UpdatedAt = time.Now()
	r.ratings[rating.TicketID] = stored
	return nil
}

func (r *fakeRatingRepo) ListByAgent(_ context.Context, agentID string, _, _ int) ([]domain.TicketRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketRating
	for _, rating := range r.ratings {
		if rating.RatedAgentID != nil && *rating.RatedAgentID == agentID {
			result = append(result, rating)
		}
	}
	return result, nil
}

func (r *fakeRatingRepo) AverageForAgent(_ context.Context, agentID string) (float64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, count int64
	for _, rating := range r.ratings {
		if rating.RatedAgentID != nil && *rating.RatedAgentID == agentID {
			sum += int64(rating.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type fakeCategoryRepo struct {
	mu         sync.Mutex
	categories map[string]domain.TicketCategory
	nextID     int
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[string]domain.TicketCategory{}}
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.TicketCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	category.ID = fmt.Sprintf("cat-%d", r.nextID)
	now := time.Now()
	category.CreatedAt = now
	category.UpdatedAt = now
	r.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.TicketCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := category
	return &copied, nil
}

func (r *fakeCategoryRepo) ListByCompany(_ context.Context, companyID string) ([]domain.TicketCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketCategory
	for _, category := range r.categories {
		if category.CompanyID == companyID {
			result = append(result, category)
		}
	}
	return result, nil
}

func (r *fakeCategoryRepo) seed(category domain.TicketCategory) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if category.ID == "" {
		r.nextID++
		category.ID = fmt.Sprintf("cat-%d", r.nextID)
	}
	r.categories[category.ID] = category
	return category.ID
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]domain.Company
	details   map[string]domain.CompanyOnboardingDetails
	nextID    int
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{
		companies: map[string]domain.Company{},
		details:   map[string]domain.CompanyOnboardingDetails{},
	}
}

func (r *fakeCompanyRepo) Create(_ context.Context, company *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	company.ID = fmt.Sprintf("co-%d", r.nextID)
	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now
	r.companies[company.ID] = *company
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := company
	return &copied, nil
}

func (r *fakeCompanyRepo) List(_ context.Context, statuses []domain.CompanyStatus, _, _ int) ([]domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Company
	for _, company := range r.companies {
		if len(statuses) > 0 {
			matched := false
			for _, s := range statuses {
				if company.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, company)
	}
	return result, nil
}

func (r *fakeCompanyRepo) UpdateStatus(_ context.Context, id string, status domain.CompanyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[id]
	if !ok {
		return pgx.ErrNoRows
	}
	company.Status = status
	company.UpdatedAt = time.Now()
	r.companies[id] = company
	return nil
}

func (r *fakeCompanyRepo) CreateOnboardingDetails(_ context.Context, details *domain.CompanyOnboardingDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	details.ID = fmt.Sprintf("obd-%s", details.CompanyID)
	r.details[details.CompanyID] = *details
	return nil
}

func (r *fakeCompanyRepo) GetOnboardingDetails(_ context.Context, companyID string) (*domain.CompanyOnboardingDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details, ok := r.details[companyID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := details
	return &copied, nil
}

func (r *fakeCompanyRepo) seed(company domain.Company) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if company.ID == "" {
		r.nextID++
		company.ID = fmt.Sprintf("co-%d", r.nextID)
	}
	r.companies[company.ID] = company
	return company.ID
}

type fakeRoleRepo struct {
	mu          sync.Mutex
	assignments map[string]domain.RoleAssignment
	nextID      int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{assignments: map[string]domain.RoleAssignment{}}
}

// Create enforces the (user_id, role_code, company_id) uniqueness the table
// carries, active or not: a second insert fails the same way Postgres would.
func (r *fakeRoleRepo) Create(_ context.Context, assignment *domain.RoleAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.assignments {
		if stored.UserID == assignment.UserID && stored.RoleCode == assignment.RoleCode &&
			sameCompany(stored.CompanyID, assignment.CompanyID) {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	r.nextID++
	assignment.ID = fmt.Sprintf("role-%d", r.nextID)
	assignment.AssignedAt = time.Now()
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *fakeRoleRepo) Reactivate(_ context.Context, id string, assignedBy *string) (*domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok || assignment.IsActive {
		return nil, pgx.ErrNoRows
	}
	assignment.IsActive = true
	assignment.RevokedAt = nil
	assignment.RevocationReason = nil
	assignment.AssignedAt = time.Now()
	assignment.AssignedBy = assignedBy
	r.assignments[id] = assignment
	copied := assignment
	return &copied, nil
}

func (r *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := assignment
	return &copied, nil
}

func (r *fakeRoleRepo) Find(_ context.Context, userID string, code domain.RoleCode, companyID *string) (*domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range r.assignments {
		if assignment.UserID != userID || assignment.RoleCode != code {
			continue
		}
		if !sameCompany(assignment.CompanyID, companyID) {
			continue
		}
		copied := assignment
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func sameCompany(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *fakeRoleRepo) ListActiveByUser(_ context.Context, userID string) ([]domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.RoleAssignment
	for _, assignment := range r.assignments {
		if assignment.UserID == userID && assignment.Active() {
			result = append(result, assignment)
		}
	}
	return result, nil
}

func (r *fakeRoleRepo) ListByCompany(_ context.Context, companyID string) ([]domain.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.RoleAssignment
	for _, assignment := range r.assignments {
		if assignment.CompanyID != nil && *assignment.CompanyID == companyID {
			result = append(result, assignment)
		}
	}
	return result, nil
}

func (r *fakeRoleRepo) Revoke(_ context.Context, id string, revokedAt time.Time, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	assignment.IsActive = false
	assignment.RevokedAt = &revokedAt
	assignment.RevocationReason = reason
	r.assignments[id] = assignment
	return nil
}

func (r *fakeRoleRepo) seed(assignment domain.RoleAssignment) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assignment.ID == "" {
		r.nextID++
		assignment.ID = fmt.Sprintf("role-%d", r.nextID)
	}
	r.assignments[assignment.ID] = assignment
	return assignment.ID
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("usr-%d", r.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Status = status
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) seed(user domain.User) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.nextID++
		user.ID = fmt.Sprintf("usr-%d", r.nextID)
	}
	r.users[user.ID] = user
	return user.ID
}

type fakeOnboardingRepo struct {
	mu       sync.Mutex
	requests map[string]domain.OnboardingRequest
	nextID   int
}

func newFakeOnboardingRepo() *fakeOnboardingRepo {
	return &fakeOnboardingRepo{requests: map[string]domain.OnboardingRequest{}}
}

func (r *fakeOnboardingRepo) Create(_ context.Context, req *domain.OnboardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = fmt.Sprintf("obr-%d", r.nextID)
	req.CreatedAt = time.Now()
	r.requests[req.ID] = *req
	return nil
}

func (r *fakeOnboardingRepo) GetByID(_ context.Context, id string) (*domain.OnboardingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := req
	return &copied, nil
}

func (r *fakeOnboardingRepo) HasPendingByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.AdminEmail == email && req.Status == domain.OnboardingStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOnboardingRepo) List(_ context.Context, statuses []domain.OnboardingStatus, _, _ int) ([]domain.OnboardingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.OnboardingRequest
	for _, req := range r.requests {
		if len(statuses) > 0 {
			matched := false
			for _, s := range statuses {
				if req.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, req)
	}
	return result, nil
}

// MarkReviewed mirrors the guarded UPDATE: only a stored PENDING request may
// transition, anything else reports pgx.ErrNoRows.
func (r *fakeOnboardingRepo) MarkReviewed(_ context.Context, req *domain.OnboardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[req.ID]
	if !ok || stored.Status != domain.OnboardingStatusPending {
		return pgx.ErrNoRows
	}
	r.requests[req.ID] = *req
	return nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	resets map[string]domain.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{resets: map[string]domain.PasswordReset{}}
}

func (r *fakeResetRepo) Create(_ context.Context, reset *domain.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[reset.Token] = *reset
	return nil
}

func (r *fakeResetRepo) Get(_ context.Context, token string) (*domain.PasswordReset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := reset
	return &copied, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, token string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset, ok := r.resets[token]
	if !ok {
		return pgx.ErrNoRows
	}
	reset.UsedAt = &usedAt
	r.resets[token] = reset
	return nil
}

// capturingDispatcher records published events for assertions.
type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *capturingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// Principal builders. Role assignment ids are irrelevant to authorization,
// only code, company scope and active state matter.

func principalFor(userID string, roles ...domain.RoleAssignment) *authz.Principal {
	for i := range roles {
		roles[i].UserID = userID
	}
	return &authz.Principal{
		User:  &domain.User{ID: userID, Status: domain.UserStatusActive},
		Roles: roles,
	}
}

func activeRole(code domain.RoleCode, companyID string) domain.RoleAssignment {
	assignment := domain.RoleAssignment{RoleCode: code, IsActive: true}
	if companyID != "" {
		assignment.CompanyID = &companyID
	}
	return assignment
}
