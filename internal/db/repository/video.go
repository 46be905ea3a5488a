package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// VideoRepository defines operations for managing videos and their stat
// observations.
type VideoRepository interface {
	// UpsertVideo creates a new video or refreshes the descriptive fields of
	// an existing one.
	UpsertVideo(ctx context.Context, video *models.Video) error

	// BatchUpsertVideosWithStats persists a collection cycle atomically:
	// every video is upserted and its stat observation appended with the
	// shared capturedAt timestamp. Returns the number of stat rows written.
	BatchUpsertVideosWithStats(ctx context.Context, records []*models.VideoWithStats, capturedAt time.Time) (int, error)

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)

	// RefreshCandidates returns IDs of tracked videos whose latest stat
	// observation is older than maxAge, most-viewed first.
	RefreshCandidates(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

// upsertVideoQuery refreshes descriptive fields only. Classification fields
// (category_id, published_at, duration, is_short) keep their first-insert
// values so reclassification upstream cannot move a video between boards.
const upsertVideoQuery = `
	INSERT INTO videos (id, title, description, channel_id, channel_title, category_id,
	                    published_at, thumb_url, duration, is_short, width, height,
	                    country_code, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
	    description = EXCLUDED.description,
	    channel_id = EXCLUDED.channel_id,
	    channel_title = EXCLUDED.channel_title,
	    thumb_url = EXCLUDED.thumb_url,
	    width = EXCLUDED.width,
	    height = EXCLUDED.height,
	    country_code = EXCLUDED.country_code,
	    updated_at = EXCLUDED.updated_at
`

const insertStatQuery = `
	INSERT INTO video_stats (video_id, captured_at, view_count, like_count, comment_count)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (video_id, captured_at) DO NOTHING
`

func (r *videoRepository) UpsertVideo(ctx context.Context, video *models.Video) error {
	_, err := r.pool.Exec(ctx, upsertVideoQuery,
		video.ID,
		video.Title,
		video.Description,
		video.ChannelID,
		video.ChannelTitle,
		video.CategoryID,
		video.PublishedAt,
		video.ThumbURL,
		video.Duration,
		video.IsShort,
		video.Width,
		video.Height,
		video.CountryCode,
		video.UpdatedAt,
	)
	if err != nil {
		return db.WrapError(err, "upsert video")
	}

	return nil
}

func (r *videoRepository) BatchUpsertVideosWithStats(ctx context.Context, records []*models.VideoWithStats, capturedAt time.Time) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		v := rec.Video
		batch.Queue(upsertVideoQuery,
			v.ID, v.Title, v.Description, v.ChannelID, v.ChannelTitle, v.CategoryID,
			v.PublishedAt, v.ThumbURL, v.Duration, v.IsShort, v.Width, v.Height,
			v.CountryCode, v.UpdatedAt,
		)
		s := rec.Stats
		batch.Queue(insertStatQuery,
			s.VideoID, capturedAt, s.ViewCount, s.LikeCount, s.CommentCount,
		)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, db.WrapError(err, "begin batch upsert")
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)

	inserted := 0
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, db.WrapError(err, "batch upsert video")
		}
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, db.WrapError(err, "batch insert stat")
		}
		inserted += int(tag.RowsAffected())
	}

	if err := br.Close(); err != nil {
		return 0, db.WrapError(err, "close batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, db.WrapError(err, "commit batch upsert")
	}

	return inserted, nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := `
		SELECT id, title, description, channel_id, channel_title, category_id,
		       published_at, thumb_url, duration, is_short, width, height,
		       country_code, updated_at
		FROM videos
		WHERE id = $1
	`

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.ChannelID,
		&video.ChannelTitle,
		&video.CategoryID,
		&video.PublishedAt,
		&video.ThumbURL,
		&video.Duration,
		&video.IsShort,
		&video.Width,
		&video.Height,
		&video.CountryCode,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) RefreshCandidates(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT s.video_id
		FROM (
			SELECT DISTINCT ON (video_id) video_id, captured_at, view_count
			FROM video_stats
			ORDER BY video_id, captured_at DESC
		) s
		WHERE s.captured_at < $1
		ORDER BY s.view_count DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, db.WrapError(err, "refresh candidates")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.WrapError(err, "scan refresh candidate")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate refresh candidates")
	}

	return ids, nil
}
