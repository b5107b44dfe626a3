package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authora/backend/internal/models"
)

const linkColumns = `id, user_id, name, description, amount, currency, website, url,
	       earnings, transactions, status, preview_title, preview_description, created_at, updated_at`

type LinkRepo struct {
	pool *pgxpool.Pool
}

func NewLinkRepo(pool *pgxpool.Pool) *LinkRepo {
	return &LinkRepo{pool: pool}
}

func scanLink(row interface{ Scan(...any) error }) (*models.Link, error) {
	var l models.Link
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.Description, &l.Amount, &l.Currency, &l.Website, &l.URL,
		&l.Earnings, &l.Transactions, &l.Status, &l.PreviewTitle, &l.PreviewDescription, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepo) Create(ctx context.Context, l *models.Link) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO links (id, user_id, name, description, amount, currency, website, url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, l.ID, l.UserID, l.Name, l.Description, l.Amount, l.Currency, l.Website, l.URL, l.Status).
		Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	return scanLink(r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
}

// GetOwned fetches a link only when it belongs to userID. Other users'
// links look like they do not exist.
func (r *LinkRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.Link, error) {
	return scanLink(r.pool.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *LinkRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Link, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+linkColumns+` FROM links WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// Update rewrites the editable fields. Earnings and transaction counters
// are deliberately not part of this statement.
func (r *LinkRepo) Update(ctx context.Context, l *models.Link) error {
	return r.pool.QueryRow(ctx, `
		UPDATE links SET
			name = $1, description = $2, amount = $3, currency = $4,
			website = $5, status = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at
	`, l.Name, l.Description, l.Amount, l.Currency, l.Website, l.Status, l.ID, l.UserID).
		Scan(&l.UpdatedAt)
}

func (r *LinkRepo) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RecordPayment applies a payment to the counters in one statement, so
// concurrent payments never lose an update.
func (r *LinkRepo) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*models.Link, error) {
	return scanLink(r.pool.QueryRow(ctx, `
		UPDATE links SET
			earnings = earnings + $1,
			transactions = transactions + 1,
			updated_at = now()
		WHERE id = $2
		RETURNING `+linkColumns, amount, id))
}

func (r *LinkRepo) SetPreview(ctx context.Context, id uuid.UUID, title, description string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE links SET preview_title = $1, preview_description = $2, updated_at = now()
		WHERE id = $3
	`, title, description, id)
	return err
}

// ListMissingPreview returns links with a website but no scraped preview
// yet, for the worker to fill in.
func (r *LinkRepo) ListMissingPreview(ctx context.Context, limit int) ([]models.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+linkColumns+` FROM links
		WHERE website IS NOT NULL AND website <> '' AND preview_title IS NULL
		ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

// DashboardStats aggregates a user's totals for the dashboard header.
type DashboardStats struct {
	TotalEarnings     float64 `json:"total_earnings"`
	TotalTransactions int     `json:"total_transactions"`
	ActiveLinks       int     `json:"active_links"`
	TotalLinks        int     `json:"total_links"`
}

func (r *LinkRepo) StatsByUser(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	var s DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(earnings), 0),
		       COALESCE(SUM(transactions), 0),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*)
		FROM links WHERE user_id = $1
	`, userID).Scan(&s.TotalEarnings, &s.TotalTransactions, &s.ActiveLinks, &s.TotalLinks)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
