package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
)

// QuotaRepository tracks daily API quota consumption. The daily limit itself
// is configuration, not data; callers layer it on top of the raw counters.
type QuotaRepository interface {
	// GetUsage retrieves the quota counters for a date. A day with no
	// recorded calls yields zero counters, not ErrNotFound.
	GetUsage(ctx context.Context, date time.Time) (used int, operations int, err error)

	// IncrementUsage adds quotaCost units and one operation to a date's
	// counters, creating the row on first use.
	IncrementUsage(ctx context.Context, date time.Time, quotaCost int) error
}

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a new QuotaRepository.
func NewQuotaRepository(pool *pgxpool.Pool) QuotaRepository {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) GetUsage(ctx context.Context, date time.Time) (int, int, error) {
	query := `
		SELECT quota_used, operations_count
		FROM api_quota_usage
		WHERE usage_date = $1
	`

	var used, operations int
	err := r.pool.QueryRow(ctx, query, date.Format("2006-01-02")).Scan(&used, &operations)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, db.WrapError(err, "get quota usage")
	}

	return used, operations, nil
}

func (r *quotaRepository) IncrementUsage(ctx context.Context, date time.Time, quotaCost int) error {
	query := `
		INSERT INTO api_quota_usage (usage_date, quota_used, operations_count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (usage_date) DO UPDATE
		SET quota_used = api_quota_usage.quota_used + EXCLUDED.quota_used,
		    operations_count = api_quota_usage.operations_count + 1,
		    updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, date.Format("2006-01-02"), quotaCost); err != nil {
		return db.WrapError(err, "increment quota usage")
	}

	return nil
}
