package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RatingRepository manages ticket ratings, one per ticket.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.TicketRating) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.TicketRating, error)
	Update(ctx context.Context, rating *domain.TicketRating) error
	ListByAgent(ctx context.Context, agentID string, limit, offset int) ([]domain.TicketRating, error)
	AverageForAgent(ctx context.Context, agentID string) (float64, int64, error)
}

type ratingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository instantiates repository.
func NewRatingRepository(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepository{pool: pool}
}

const ratingColumns = `id, ticket_id, rated_by_user_id, rated_agent_id, rating, comment, created_at, updated_at`

func (r *ratingRepository) Create(ctx context.Context, rating *domain.TicketRating) error {
	const query = `
        INSERT INTO ticket_ratings (ticket_id, rated_by_user_id, rated_agent_id, rating, comment)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rating.TicketID,
		rating.RatedByUserID,
		rating.RatedAgentID,
		rating.Rating,
		rating.Comment,
	).Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
}

func (r *ratingRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.TicketRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ticket_ratings WHERE ticket_id=$1`
	return scanRating(r.pool.QueryRow(ctx, query, ticketID))
}

// Update amends the rating value and comment only. ticket_id and the
// rated_agent_id snapshot are immutable after creation.
func (r *ratingRepository) Update(ctx context.Context, rating *domain.TicketRating) error {
	const query = `
        UPDATE ticket_ratings SET rating=$1, comment=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, rating.Rating, rating.Comment, rating.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ratingRepository) ListByAgent(ctx context.Context, agentID string, limit, offset int) ([]domain.TicketRating, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + ratingColumns + `
        FROM ticket_ratings WHERE rated_agent_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, agentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketRating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rating)
	}
	return result, rows.Err()
}

func (r *ratingRepository) AverageForAgent(ctx context.Context, agentID string) (float64, int64, error) {
	const query = `
        SELECT COALESCE(AVG(rating), 0), COUNT(*)
        FROM ticket_ratings WHERE rated_agent_id=$1`
	var avg float64
	var count int64
	if err := r.pool.QueryRow(ctx, query, agentID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func scanRating(row pgx.Row) (*domain.TicketRating, error) {
	var rating domain.TicketRating
	if err := row.Scan(
		&rating.ID,
		&rating.TicketID,
		&rating.RatedByUserID,
		&rating.RatedAgentID,
		&rating.Rating,
		&rating.Comment,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rating, nil
}
