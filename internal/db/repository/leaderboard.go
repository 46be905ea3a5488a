package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// LeaderboardQuery selects which board to rank. Since bounds the freshness
// window: only videos with at least one observation at or after it appear.
// Zero-valued filters are inactive; IsShort nil means both forms.
type LeaderboardQuery struct {
	Since       time.Time
	Limit       int
	CategoryID  int64
	CountryCode string
	IsShort     *bool
}

// LeaderboardRepository serves the ranked read side. Every ranking uses each
// video's single most recent observation and orders by view count descending
// with video ID as the deterministic tie-break.
type LeaderboardRepository interface {
	TopVideos(ctx context.Context, q LeaderboardQuery) ([]*models.RankedVideo, error)

	// TopCreators aggregates each channel's videos' latest observations.
	// No freshness window applies: a creator's catalog counts even when the
	// videos have rotated off the charts.
	TopCreators(ctx context.Context, limit int) ([]*models.RankedCreator, error)

	// CreatorVideos returns one channel's tracked videos ranked by their
	// latest observation at or after since.
	CreatorVideos(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.RankedVideo, error)
}

type leaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(pool *pgxpool.Pool) LeaderboardRepository {
	return &leaderboardRepository{pool: pool}
}

const rankedVideoColumns = `
	v.id, v.title, v.description, v.channel_id, v.channel_title, v.category_id,
	v.thumb_url, v.duration, v.is_short, v.country_code, v.published_at,
	s.view_count, s.like_count, s.comment_count, s.captured_at`

func (r *leaderboardRepository) TopVideos(ctx context.Context, q LeaderboardQuery) ([]*models.RankedVideo, error) {
	conds := []string{}
	args := []any{q.Since}
	argn := 2

	if q.CategoryID != 0 {
		conds = append(conds, fmt.Sprintf("v.category_id = $%d", argn))
		args = append(args, q.CategoryID)
		argn++
	}
	if q.CountryCode != "" {
		conds = append(conds, fmt.Sprintf("v.country_code = $%d", argn))
		args = append(args, q.CountryCode)
		argn++
	}
	if q.IsShort != nil {
		conds = append(conds, fmt.Sprintf("v.is_short = $%d", argn))
		args = append(args, *q.IsShort)
		argn++
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, q.Limit)

	// The inner DISTINCT ON picks each video's latest observation inside the
	// window; dimension filters apply to the join result.
	query := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT DISTINCT ON (video_id)
			       video_id, view_count, like_count, comment_count, captured_at
			FROM video_stats
			WHERE captured_at >= $1
			ORDER BY video_id, captured_at DESC
		) s
		JOIN videos v ON v.id = s.video_id
		%s
		ORDER BY s.view_count DESC, v.id ASC
		LIMIT $%d
	`, rankedVideoColumns, where, argn)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.WrapError(err, "top videos")
	}
	defer rows.Close()

	return scanRankedVideos(rows)
}

func (r *leaderboardRepository) TopCreators(ctx context.Context, limit int) ([]*models.RankedCreator, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (video_id) video_id, view_count, captured_at
			FROM video_stats
			ORDER BY video_id, captured_at DESC
		)
		SELECT v.channel_id,
		       COALESCE(c.channel_title, MAX(v.channel_title)) AS channel_title,
		       COUNT(DISTINCT v.id) AS video_count,
		       SUM(l.view_count) AS total_views,
		       AVG(l.view_count) AS avg_views,
		       MAX(l.captured_at) AS latest_capture,
		       c.description, c.avatar_url, c.subscriber_count
		FROM videos v
		JOIN latest l ON l.video_id = v.id
		LEFT JOIN creators c ON c.channel_id = v.channel_id
		GROUP BY v.channel_id, c.channel_title, c.description, c.avatar_url, c.subscriber_count
		ORDER BY total_views DESC, v.channel_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "top creators")
	}
	defer rows.Close()

	var creators []*models.RankedCreator
	for rows.Next() {
		c := &models.RankedCreator{}
		err := rows.Scan(
			&c.ChannelID,
			&c.ChannelTitle,
			&c.VideoCount,
			&c.TotalViews,
			&c.AvgViews,
			&c.LatestCapture,
			&c.Description,
			&c.AvatarURL,
			&c.SubscriberCount,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan top creator")
		}
		creators = append(creators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate top creators")
	}

	return creators, nil
}

func (r *leaderboardRepository) CreatorVideos(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.RankedVideo, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT DISTINCT ON (video_id)
			       video_id, view_count, like_count, comment_count, captured_at
			FROM video_stats
			WHERE captured_at >= $2
			ORDER BY video_id, captured_at DESC
		) s
		JOIN videos v ON v.id = s.video_id
		WHERE v.channel_id = $1
		ORDER BY s.view_count DESC, v.id ASC
		LIMIT $3
	`, rankedVideoColumns)

	rows, err := r.pool.Query(ctx, query, channelID, since, limit)
	if err != nil {
		return nil, db.WrapError(err, "creator videos")
	}
	defer rows.Close()

	return scanRankedVideos(rows)
}

// Helper function to scan ranked video rows
func scanRankedVideos(rows pgx.Rows) ([]*models.RankedVideo, error) {
	var videos []*models.RankedVideo

	for rows.Next() {
		v := &models.RankedVideo{}
		err := rows.Scan(
			&v.ID,
			&v.Title,
			&v.Description,
			&v.ChannelID,
			&v.ChannelTitle,
			&v.CategoryID,
			&v.ThumbURL,
			&v.Duration,
			&v.IsShort,
			&v.CountryCode,
			&v.PublishedAt,
			&v.ViewCount,
			&v.LikeCount,
			&v.CommentCount,
			&v.CapturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ranked video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked videos: %w", err)
	}

	return videos, nil
}
