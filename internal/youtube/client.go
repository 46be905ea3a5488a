package youtube

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

const (
	// DefaultRegion is used when a query does not name one.
	DefaultRegion = "US"

	// pageSize is the API maximum for list endpoints.
	pageSize = 50

	// batchSize is the API maximum for id-filtered list calls.
	batchSize = 50

	// Raw over-fetch multipliers for shorts collection. Shorts are a minority
	// of the mostPopular chart, so the raw pull has to be larger than the
	// target to yield enough after filtering.
	shortsGlobalMultiplier   = 2
	shortsCategoryMultiplier = 3
)

// TrendingQuery describes one mostPopular chart pull.
// CategoryID zero means the whole chart; Target is the number of normalized
// records the caller wants back.
type TrendingQuery struct {
	Region     string
	CategoryID int64
	Target     int
}

// Client wraps the YouTube Data API v3 for chart, channel and stat reads.
// Every fetch method returns the quota units it consumed alongside its data so
// the caller can account for usage even on partial failure.
type Client struct {
	service   *youtube.Service
	pageDelay time.Duration
	log       *zap.Logger
}

// NewClient creates a YouTube API client. pageDelay spaces successive page
// requests within one chart pull.
func NewClient(ctx context.Context, apiKey string, pageDelay time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	return &Client{
		service:   service,
		pageDelay: pageDelay,
		log:       logger.Named("youtube"),
	}, nil
}

// TrendingVideos pulls the mostPopular chart for the query, paginating until
// Target normalized regular (non-Short) videos are collected or the chart is
// exhausted. Shorts and zero-view items are filtered out as pages arrive, so
// later pages make up the shortfall.
//
// A page failure after at least one successful page degrades gracefully: the
// partial result is returned with a nil error.
func (c *Client) TrendingVideos(ctx context.Context, q TrendingQuery) ([]*models.VideoWithStats, int, error) {
	return c.collect(ctx, q, 0, func(rec *models.VideoWithStats) bool {
		return !rec.Video.IsShort
	})
}

// TrendingShorts pulls the mostPopular chart and keeps only Shorts. The raw
// pull is capped at a multiple of Target (2x for the whole chart, 3x within a
// category) rather than paginating indefinitely, since most chart entries are
// regular videos.
func (c *Client) TrendingShorts(ctx context.Context, q TrendingQuery) ([]*models.VideoWithStats, int, error) {
	multiplier := shortsGlobalMultiplier
	if q.CategoryID != 0 {
		multiplier = shortsCategoryMultiplier
	}
	return c.collect(ctx, q, q.Target*multiplier, func(rec *models.VideoWithStats) bool {
		return rec.Video.IsShort
	})
}

// collect is the shared pagination loop. maxRaw zero means no raw cap: pages
// are fetched until the keep-filtered yield reaches q.Target or the chart runs
// out of pages.
func (c *Client) collect(ctx context.Context, q TrendingQuery, maxRaw int, keep func(*models.VideoWithStats) bool) ([]*models.VideoWithStats, int, error) {
	region := q.Region
	if region == "" {
		region = DefaultRegion
	}

	var (
		out       []*models.VideoWithStats
		quotaUsed int
		pageToken string
		rawCount  int
	)

	for {
		call := c.service.Videos.
			List([]string{"snippet", "contentDetails", "statistics"}).
			Chart("mostPopular").
			RegionCode(region).
			MaxResults(pageSize).
			Context(ctx)
		if q.CategoryID != 0 {
			call = call.VideoCategoryId(strconv.FormatInt(q.CategoryID, 10))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if len(out) > 0 {
				c.log.Warn("chart page fetch failed, keeping partial results",
					zap.String("region", region),
					zap.Int64("category_id", q.CategoryID),
					zap.Int("collected", len(out)),
					zap.Error(err))
				return out, quotaUsed, nil
			}
			return nil, quotaUsed, fmt.Errorf("failed to fetch mostPopular chart for %s: %w", region, err)
		}
		quotaUsed++

		rawCount += len(resp.Items)
		for _, item := range resp.Items {
			rec := TransformVideo(item, region)
			if rec == nil {
				continue
			}
			if !keep(rec) {
				continue
			}
			out = append(out, rec)
			if len(out) == q.Target {
				return out, quotaUsed, nil
			}
		}

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		if maxRaw > 0 && rawCount >= maxRaw {
			break
		}
		pageToken = resp.NextPageToken

		select {
		case <-ctx.Done():
			return out, quotaUsed, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}

	return out, quotaUsed, nil
}

// ChannelDetails fetches creator profiles for the given channel IDs in batches
// of 50. A failed batch is logged and skipped; the other batches still count.
func (c *Client) ChannelDetails(ctx context.Context, channelIDs []string) ([]*models.Creator, int, error) {
	if len(channelIDs) == 0 {
		return nil, 0, nil
	}

	var (
		creators  []*models.Creator
		quotaUsed int
	)

	for _, batch := range BatchIDs(channelIDs, batchSize) {
		resp, err := c.service.Channels.
			List([]string{"snippet", "statistics", "brandingSettings"}).
			Id(batch...).
			MaxResults(int64(len(batch))).
			Context(ctx).
			Do()
		if err != nil {
			c.log.Warn("channel batch fetch failed, skipping batch",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		quotaUsed++

		for _, item := range resp.Items {
			if creator := TransformChannel(item); creator != nil {
				creators = append(creators, creator)
			}
		}
	}

	return creators, quotaUsed, nil
}

// RefreshStats fetches current statistics for known video IDs in batches of
// 50. Videos the API no longer returns (deleted or private) are silently
// absent from the result. A failed batch is logged and skipped.
func (c *Client) RefreshStats(ctx context.Context, videoIDs []string) ([]*models.VideoStat, int, error) {
	if len(videoIDs) == 0 {
		return nil, 0, nil
	}

	var (
		stats     []*models.VideoStat
		quotaUsed int
	)

	for _, batch := range BatchIDs(videoIDs, batchSize) {
		resp, err := c.service.Videos.
			List([]string{"statistics"}).
			Id(batch...).
			MaxResults(int64(len(batch))).
			Context(ctx).
			Do()
		if err != nil {
			c.log.Warn("stats batch fetch failed, skipping batch",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		quotaUsed++

		for _, item := range resp.Items {
			if stat := TransformStat(item); stat != nil {
				stats = append(stats, stat)
			}
		}
	}

	return stats, quotaUsed, nil
}

// BatchIDs splits ids into chunks of at most size.
func BatchIDs(ids []string, size int) [][]string {
	if size <= 0 {
		return [][]string{ids}
	}
	var batches [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
