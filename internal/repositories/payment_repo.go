package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authora/backend/internal/models"
)

// ErrDuplicateTxHash means the transaction hash was already credited.
var ErrDuplicateTxHash = errors.New("transaction hash already recorded")

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) Insert(ctx context.Context, p *models.Payment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, link_id, amount, currency, tx_hash, payer_address, verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.LinkID, p.Amount, p.Currency, p.TxHash, p.PayerAddress, p.Verified).Scan(&p.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateTxHash
	}
	return err
}

func (r *PaymentRepo) ListByLink(ctx context.Context, linkID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, link_id, amount, currency, tx_hash, payer_address, verified, created_at
		FROM payments WHERE link_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, linkID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

// ListRecentByUser joins through links so the dashboard can show a
// cross-link payment feed.
func (r *PaymentRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.link_id, p.amount, p.currency, p.tx_hash, p.payer_address, p.verified, p.created_at
		FROM payments p
		JOIN links l ON l.id = p.link_id
		WHERE l.user_id = $1
		ORDER BY p.created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPayments(rows)
}

type paymentRows interface {
	Next() bool
	Scan(...any) error
	Err() error
}

func collectPayments(rows paymentRows) ([]models.Payment, error) {
	var out []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.LinkID, &p.Amount, &p.Currency, &p.TxHash, &p.PayerAddress, &p.Verified, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
