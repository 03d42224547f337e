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

// RatingService lets ticket creators rate resolved tickets.
type RatingService struct {
	tickets    repository.TicketRepository
	ratings    repository.RatingRepository
	dispatcher events.Dispatcher
	recorder   *audit.Recorder
}

// RatingDependencies bundles collaborators.
type RatingDependencies struct {
	TicketRepo repository.TicketRepository
	RatingRepo repository.RatingRepository
	Dispatcher events.Dispatcher
	Recorder   *audit.Recorder
}

// RatingInput is the caller-supplied part of a rating.
type RatingInput struct {
	Rating  int
	Comment *string
}

// NewRatingService constructs the service.
func NewRatingService(deps RatingDependencies) *RatingService {
	return &RatingService{
		tickets:    deps.TicketRepo,
		ratings:    deps.RatingRepo,
		dispatcher: deps.Dispatcher,
		recorder:   deps.Recorder,
	}
}

// CreateRating records the creator's verdict. Preconditions are checked in
// order, each with its own error kind: resolution state, creatorship,
// uniqueness. The rated agent is snapshotted from the ticket's current owner
// and never recomputed afterwards, so reassignment cannot rewrite history.
func (s *RatingService) CreateRating(ctx context.Context, p *authz.Principal, ticketID string, input RatingInput, meta audit.RequestMeta) (*domain.TicketRating, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"field": "rating"})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidStateTransition("ticket is not rateable until resolved",
			map[string]any{"status": ticket.Status})
	}
	if ticket.CreatedByUserID != p.UserID() {
		return nil, apperrors.NewNotTicketOwner()
	}
	if _, err := s.ratings.GetByTicket(ctx, ticket.ID); err == nil {
		return nil, apperrors.NewRatingExists(ticket.ID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	rating := &domain.TicketRating{
		TicketID:      ticket.ID,
		RatedByUserID: p.UserID(),
		RatedAgentID:  ticket.OwnerAgentID,
		Rating:        input.Rating,
		Comment:       normalizeComment(input.Comment),
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRatingCreated,
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ActorID:   p.UserID(),
		Payload: events.RatingCreatedPayload{
			RatingID:     rating.ID,
			Rating:       rating.Rating,
			RatedAgentID: rating.RatedAgentID,
		},
	})
	recordActivity(ctx, s.recorder, p, "ticket.rated", "ticket", ticket.ID, nil, map[string]any{
		"rating":         rating.Rating,
		"rated_agent_id": rating.RatedAgentID,
	}, meta)
	return rating, nil
}

// UpdateRating lets the author amend rating and comment within the edit
// window. The agent snapshot and ticket binding stay untouched.
func (s *RatingService) UpdateRating(ctx context.Context, p *authz.Principal, ticketID string, input RatingInput, meta audit.RequestMeta) (*domain.TicketRating, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"field": "rating"})
	}
	rating, err := s.ratings.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if rating.RatedByUserID != p.UserID() {
		return nil, apperrors.NewNotTicketOwner()
	}
	if time.Since(rating.CreatedAt) > domain.RatingEditWindow {
		return nil, apperrors.NewInvalidStateTransition("rating edit window has passed",
			map[string]any{"created_at": rating.CreatedAt})
	}
	oldRating := rating.Rating
	rating.Rating = input.Rating
	rating.Comment = normalizeComment(input.Comment)
	if err := s.ratings.Update(ctx, rating); err != nil {
		return nil, apperrors.MapError(err)
	}
	recordActivity(ctx, s.recorder, p, "ticket.rating_updated", "ticket", ticketID,
		map[string]any{"rating": oldRating}, map[string]any{"rating": rating.Rating}, meta)
	return rating, nil
}

// GetRating fetches the rating for a ticket.
func (s *RatingService) GetRating(ctx context.Context, ticketID string) (*domain.TicketRating, error) {
	rating, err := s.ratings.GetByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rating, nil
}

// AgentScore reports the average rating and count an agent has earned
// across all snapshots.
func (s *RatingService) AgentScore(ctx context.Context, agentID string) (float64, int64, error) {
	avg, count, err := s.ratings.AverageForAgent(ctx, agentID)
	if err != nil {
		return 0, 0, apperrors.MapError(err)
	}
	return avg, count, nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
