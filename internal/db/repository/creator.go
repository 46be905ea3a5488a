package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// CreatorRepository defines operations for managing channel profiles.
type CreatorRepository interface {
	// BatchUpsertCreators writes profile rows, replacing every field on
	// conflict. Returns the number of rows written.
	BatchUpsertCreators(ctx context.Context, creators []*models.Creator) (int, error)

	// GetCreator retrieves a single profile by channel ID.
	GetCreator(ctx context.Context, channelID string) (*models.Creator, error)

	// StaleCreatorIDs returns channel IDs referenced by tracked videos whose
	// profile is missing or was last refreshed before olderThan.
	StaleCreatorIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
}

type creatorRepository struct {
	pool *pgxpool.Pool
}

// NewCreatorRepository creates a new CreatorRepository.
func NewCreatorRepository(pool *pgxpool.Pool) CreatorRepository {
	return &creatorRepository{pool: pool}
}

func (r *creatorRepository) BatchUpsertCreators(ctx context.Context, creators []*models.Creator) (int, error) {
	if len(creators) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO creators (channel_id, channel_title, description, avatar_url, banner_url,
		                      subscriber_count, video_count, view_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (channel_id) DO UPDATE
		SET channel_title = EXCLUDED.channel_title,
		    description = EXCLUDED.description,
		    avatar_url = EXCLUDED.avatar_url,
		    banner_url = EXCLUDED.banner_url,
		    subscriber_count = EXCLUDED.subscriber_count,
		    video_count = EXCLUDED.video_count,
		    view_count = EXCLUDED.view_count,
		    updated_at = EXCLUDED.updated_at
	`

	batch := &pgx.Batch{}
	for _, c := range creators {
		batch.Queue(query,
			c.ChannelID, c.ChannelTitle, c.Description, c.AvatarURL, c.BannerURL,
			c.SubscriberCount, c.VideoCount, c.ViewCount, c.UpdatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	written := 0
	for range creators {
		if _, err := br.Exec(); err != nil {
			return written, db.WrapError(err, "batch upsert creators")
		}
		written++
	}

	return written, nil
}

func (r *creatorRepository) GetCreator(ctx context.Context, channelID string) (*models.Creator, error) {
	query := `
		SELECT channel_id, channel_title, description, avatar_url, banner_url,
		       subscriber_count, video_count, view_count, updated_at
		FROM creators
		WHERE channel_id = $1
	`

	creator := &models.Creator{}
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&creator.ChannelID,
		&creator.ChannelTitle,
		&creator.Description,
		&creator.AvatarURL,
		&creator.BannerURL,
		&creator.SubscriberCount,
		&creator.VideoCount,
		&creator.ViewCount,
		&creator.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get creator")
	}

	return creator, nil
}

func (r *creatorRepository) StaleCreatorIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT v.channel_id
		FROM videos v
		LEFT JOIN creators c ON c.channel_id = v.channel_id
		WHERE c.channel_id IS NULL OR c.updated_at < $1
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, db.WrapError(err, "stale creator ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.WrapError(err, "scan stale creator id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate stale creator ids")
	}

	return ids, nil
}
