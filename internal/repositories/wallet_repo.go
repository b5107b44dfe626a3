package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authora/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Upsert registers or replaces the address for (user, chain). Connecting
// a different wallet on the same chain overwrites the previous one.
func (r *WalletRepo) Upsert(ctx context.Context, w *models.WalletEntry) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO wallets (user_id, chain, address, verified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, chain) DO UPDATE SET
			address = EXCLUDED.address,
			verified = EXCLUDED.verified,
			updated_at = now()
		RETURNING id, connected_at, updated_at
	`, w.UserID, w.Chain, w.Address, w.Verified).Scan(&w.ID, &w.ConnectedAt, &w.UpdatedAt)
}

func (r *WalletRepo) Get(ctx context.Context, userID uuid.UUID, chain string) (*models.WalletEntry, error) {
	var w models.WalletEntry
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, chain, address, verified, connected_at, updated_at
		FROM wallets WHERE user_id = $1 AND chain = $2
	`, userID, chain).Scan(&w.ID, &w.UserID, &w.Chain, &w.Address, &w.Verified, &w.ConnectedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WalletEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, chain, address, verified, connected_at, updated_at
		FROM wallets WHERE user_id = $1 ORDER BY chain
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WalletEntry
	for rows.Next() {
		var w models.WalletEntry
		if err := rows.Scan(&w.ID, &w.UserID, &w.Chain, &w.Address, &w.Verified, &w.ConnectedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateChallenge stores a fresh sign-in nonce.
func (r *WalletRepo) CreateChallenge(ctx context.Context, ch *models.AuthChallenge) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO auth_challenges (nonce, email, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, ch.Nonce, ch.Email, ch.ExpiresAt).Scan(&ch.ID, &ch.CreatedAt)
}

// ConsumeChallenge marks a nonce used; false when the nonce is unknown,
// already used, or expired. Single statement, so a replayed verify
// request cannot win a race for the same nonce.
func (r *WalletRepo) ConsumeChallenge(ctx context.Context, nonce, email string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE auth_challenges SET used = true
		WHERE nonce = $1 AND email = $2 AND used = false AND expires_at > now()
	`, nonce, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *WalletRepo) DeleteExpiredChallenges(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_challenges WHERE expires_at < now() - interval '1 hour'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
