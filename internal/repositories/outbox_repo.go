package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authora/backend/internal/models"
)

type OutboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) *OutboxRepo {
	return &OutboxRepo{pool: pool}
}

func (r *OutboxRepo) Enqueue(ctx context.Context, m *models.EmailOutbox) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO email_outbox (recipient, subject, body, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING id, created_at
	`, m.Recipient, m.Subject, m.Body).Scan(&m.ID, &m.CreatedAt)
}

// FetchPending returns up to limit rows awaiting dispatch, oldest first.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]models.EmailOutbox, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient, subject, body, attempts, status, last_error, created_at, sent_at
		FROM email_outbox
		WHERE status = 'pending' AND attempts < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, models.MaxOutboxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmailOutbox
	for rows.Next() {
		var m models.EmailOutbox
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.Attempts, &m.Status, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE email_outbox SET status = 'sent', sent_at = now(), last_error = NULL
		WHERE id = $1
	`, id)
	return err
}

// MarkFailed bumps the attempt counter; the row flips to failed once the
// attempt cap is reached.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE email_outbox SET
			attempts = attempts + 1,
			last_error = $1,
			status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
		WHERE id = $3
	`, sendErr, models.MaxOutboxAttempts, id)
	return err
}
