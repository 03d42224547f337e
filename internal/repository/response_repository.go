package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ResponseWriteEffect describes the ticket-side updates that must land in
// the same transaction as the response insert.
type ResponseWriteEffect struct {
	// ReopenFromPending flips PENDING back to OPEN when the creator replies.
	ReopenFromPending bool
}

// TicketResponseRepository manages ticket thread responses.
//
// Create performs the response insert and the assign-on-first-response rule
// as one atomic transaction: the owner claim is a conditional update guarded
// by owner_agent_id IS NULL, so two agents racing to respond can never both
// win the ticket.
type TicketResponseRepository interface {
	Create(ctx context.Context, resp *domain.TicketResponse, effect ResponseWriteEffect) (claimed bool, err error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketResponse, error)
}

type ticketResponseRepository struct {
	pool *pgxpool.Pool
}

// NewTicketResponseRepository builds repository.
func NewTicketResponseRepository(pool *pgxpool.Pool) TicketResponseRepository {
	return &ticketResponseRepository{pool: pool}
}

func (r *ticketResponseRepository) Create(ctx context.Context, resp *domain.TicketResponse, effect ResponseWriteEffect) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertQuery = `
        INSERT INTO ticket_responses (ticket_id, author_id, author_type, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertQuery,
		resp.TicketID,
		resp.AuthorID,
		resp.AuthorType,
		resp.Content,
	).Scan(&resp.ID, &resp.CreatedAt); err != nil {
		return false, err
	}

	claimed := false
	switch resp.AuthorType {
	case domain.AuthorTypeAgent:
		// The claim only fires while the conversation is live. A RESOLVED
		// ticket that never got a response (resolved directly by staff) must
		// stay RESOLVED until an explicit reopen.
		const claimQuery = `
            UPDATE tickets
            SET owner_agent_id=$1, status='PENDING', first_response_at=NOW(),
                last_response_author_type='AGENT', updated_at=NOW()
            WHERE id=$2 AND owner_agent_id IS NULL AND status IN ('OPEN','PENDING')`
		cmd, err := tx.Exec(ctx, claimQuery, resp.AuthorID, resp.TicketID)
		if err != nil {
			return false, err
		}
		claimed = cmd.RowsAffected() == 1
		if !claimed {
			// Owner already set, or the ticket is past the live states;
			// the reply only moves the conversation forward, never the
			// ownership or the resolution.
			const followupQuery = `
                UPDATE tickets
                SET status = CASE WHEN status='OPEN' THEN 'PENDING' ELSE status END,
                    last_response_author_type='AGENT', updated_at=NOW()
                WHERE id=$1`
			if _, err := tx.Exec(ctx, followupQuery, resp.TicketID); err != nil {
				return false, err
			}
		}
	default:
		userQuery := `
            UPDATE tickets
            SET last_response_author_type='USER', updated_at=NOW()
            WHERE id=$1`
		if effect.ReopenFromPending {
			userQuery = `
            UPDATE tickets
            SET status = CASE WHEN status='PENDING' THEN 'OPEN' ELSE status END,
                last_response_author_type='USER', updated_at=NOW()
            WHERE id=$1`
		}
		if _, err := tx.Exec(ctx, userQuery, resp.TicketID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return claimed, nil
}

func (r *ticketResponseRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketResponse, error) {
	const query = `
        SELECT id, ticket_id, author_id, author_type, content, created_at
        FROM ticket_responses WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketResponse
	for rows.Next() {
		var resp domain.TicketResponse
		if err := rows.Scan(
			&resp.ID,
			&resp.TicketID,
			&resp.AuthorID,
			&resp.AuthorType,
			&resp.Content,
			&resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, rows.Err()
}
