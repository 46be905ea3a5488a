package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// StatsRepository defines operations on the append-only stat observations.
type StatsRepository interface {
	// BatchInsertStats appends observations for already-known videos with a
	// shared capturedAt. Observations for unknown video IDs are skipped, not
	// errors: a refresh can race with a video being cleaned up.
	BatchInsertStats(ctx context.Context, stats []*models.VideoStat, capturedAt time.Time) (int, error)

	// LatestStat returns the most recent observation for a video.
	LatestStat(ctx context.Context, videoID string) (*models.VideoStat, error)

	// FindAnomalousStats returns stat rows whose successor observation shows a
	// view-count drop of more than 50%.
	FindAnomalousStats(ctx context.Context, limit int) ([]*models.AnomalousStat, error)

	// DeleteStat removes a single observation, used by anomaly cleanup.
	DeleteStat(ctx context.Context, videoID string, capturedAt time.Time) error
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) BatchInsertStats(ctx context.Context, stats []*models.VideoStat, capturedAt time.Time) (int, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	// The videos join guard drops observations for IDs we no longer track.
	query := `
		INSERT INTO video_stats (video_id, captured_at, view_count, like_count, comment_count)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM videos WHERE id = $1)
		ON CONFLICT (video_id, captured_at) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, s := range stats {
		batch.Queue(query, s.VideoID, capturedAt, s.ViewCount, s.LikeCount, s.CommentCount)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range stats {
		tag, err := br.Exec()
		if err != nil {
			return inserted, db.WrapError(err, "batch insert stats")
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

func (r *statsRepository) LatestStat(ctx context.Context, videoID string) (*models.VideoStat, error) {
	query := `
		SELECT video_id, captured_at, view_count, like_count, comment_count
		FROM video_stats
		WHERE video_id = $1
		ORDER BY captured_at DESC
		LIMIT 1
	`

	stat := &models.VideoStat{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&stat.VideoID,
		&stat.CapturedAt,
		&stat.ViewCount,
		&stat.LikeCount,
		&stat.CommentCount,
	)
	if err != nil {
		return nil, db.WrapError(err, "latest stat")
	}

	return stat, nil
}

func (r *statsRepository) FindAnomalousStats(ctx context.Context, limit int) ([]*models.AnomalousStat, error) {
	// A later observation less than half the earlier one means the earlier
	// row carried a bad count. The earlier row is the one to delete.
	query := `
		WITH ordered AS (
			SELECT video_id, captured_at, view_count,
			       LAG(captured_at) OVER w AS prev_captured_at,
			       LAG(view_count) OVER w AS prev_view_count
			FROM video_stats
			WINDOW w AS (PARTITION BY video_id ORDER BY captured_at)
		)
		SELECT video_id, captured_at, view_count, prev_captured_at, prev_view_count,
		       ROUND(100.0 * (prev_view_count - view_count) / prev_view_count, 2) AS decrease_pct
		FROM ordered
		WHERE prev_view_count IS NOT NULL
		  AND view_count::numeric < prev_view_count::numeric * 0.5
		ORDER BY decrease_pct DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "find anomalous stats")
	}
	defer rows.Close()

	var anomalies []*models.AnomalousStat
	for rows.Next() {
		a := &models.AnomalousStat{}
		err := rows.Scan(
			&a.VideoID,
			&a.CapturedAt,
			&a.ViewCount,
			&a.PrevCapturedAt,
			&a.PrevViewCount,
			&a.DecreasePct,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan anomalous stat")
		}
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate anomalous stats")
	}

	return anomalies, nil
}

func (r *statsRepository) DeleteStat(ctx context.Context, videoID string, capturedAt time.Time) error {
	query := `DELETE FROM video_stats WHERE video_id = $1 AND captured_at = $2`

	tag, err := r.pool.Exec(ctx, query, videoID, capturedAt)
	if err != nil {
		return db.WrapError(err, "delete stat")
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}

	return nil
}
