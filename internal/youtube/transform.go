package youtube

import (
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// ShortMaxSeconds is the upper bound (inclusive) for classifying a video as a
// Short. Classification is by duration alone; thumbnail aspect ratio proved
// unreliable for this purpose.
const ShortMaxSeconds = 180

// IsShortDuration reports whether a parsed duration classifies as a Short.
// Zero means live or unknown and is never a Short.
func IsShortDuration(seconds int) bool {
	return seconds > 0 && seconds <= ShortMaxSeconds
}

// ParseDuration converts an ISO 8601 duration to seconds.
// Example: "PT4M13S" -> 253 seconds
func ParseDuration(duration string) (int, error) {
	if !strings.HasPrefix(duration, "PT") {
		return 0, &DurationError{Raw: duration}
	}

	// Remove PT prefix
	duration = strings.TrimPrefix(duration, "PT")

	var hours, minutes, seconds int

	// Parse hours
	if hIdx := strings.Index(duration, "H"); hIdx != -1 {
		h, err := strconv.Atoi(duration[:hIdx])
		if err != nil {
			return 0, err
		}
		hours = h
		duration = duration[hIdx+1:]
	}

	// Parse minutes
	if mIdx := strings.Index(duration, "M"); mIdx != -1 {
		m, err := strconv.Atoi(duration[:mIdx])
		if err != nil {
			return 0, err
		}
		minutes = m
		duration = duration[mIdx+1:]
	}

	// Parse seconds
	if sIdx := strings.Index(duration, "S"); sIdx != -1 {
		s, err := strconv.Atoi(duration[:sIdx])
		if err != nil {
			return 0, err
		}
		seconds = s
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// DurationError reports a duration string that is not in PT form, e.g. "P0D"
// for live streams.
type DurationError struct {
	Raw string
}

func (e *DurationError) Error() string {
	return "invalid duration format: " + e.Raw
}

// TransformVideo maps an API video item to a Video+VideoStat pair.
//
// Returns nil when the item has no usable view count (zero or missing): the
// record is dropped for this observation cycle, by the data-quality guard, not
// reported as an error. countryCode stamps the region the chart was fetched
// for.
func TransformVideo(item *youtube.Video, countryCode string) *models.VideoWithStats {
	if item == nil || item.Snippet == nil || item.ContentDetails == nil {
		return nil
	}
	if item.Statistics == nil || item.Statistics.ViewCount == 0 {
		return nil
	}

	durationSeconds, err := ParseDuration(item.ContentDetails.Duration)
	if err != nil {
		// Live streams report P0D; treat as unknown duration, never a Short.
		durationSeconds = 0
	}

	categoryID, _ := strconv.ParseInt(item.Snippet.CategoryId, 10, 64)
	publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)

	if countryCode == "" {
		countryCode = DefaultRegion
	}

	video := &models.Video{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		Description:  strPtr(item.Snippet.Description),
		ChannelID:    item.Snippet.ChannelId,
		ChannelTitle: item.Snippet.ChannelTitle,
		CategoryID:   categoryID,
		PublishedAt:  publishedAt,
		Duration:     item.ContentDetails.Duration,
		IsShort:      IsShortDuration(durationSeconds),
		CountryCode:  countryCode,
		UpdatedAt:    time.Now().UTC(),
	}

	if thumb := pickThumbnail(item.Snippet.Thumbnails); thumb != nil {
		video.ThumbURL = thumb.Url
		video.Width = int64Ptr(thumb.Width)
		video.Height = int64Ptr(thumb.Height)
	}

	stats := &models.VideoStat{
		VideoID:      item.Id,
		ViewCount:    int64(item.Statistics.ViewCount),
		LikeCount:    countPtr(item.Statistics.LikeCount),
		CommentCount: countPtr(item.Statistics.CommentCount),
	}

	return &models.VideoWithStats{Video: video, Stats: stats}
}

// TransformStat maps an API video item to a bare stat row for refresh cycles.
// Same zero-view guard as TransformVideo.
func TransformStat(item *youtube.Video) *models.VideoStat {
	if item == nil || item.Statistics == nil || item.Statistics.ViewCount == 0 {
		return nil
	}

	return &models.VideoStat{
		VideoID:      item.Id,
		ViewCount:    int64(item.Statistics.ViewCount),
		LikeCount:    countPtr(item.Statistics.LikeCount),
		CommentCount: countPtr(item.Statistics.CommentCount),
	}
}

// TransformChannel maps an API channel item to a Creator profile row.
func TransformChannel(item *youtube.Channel) *models.Creator {
	if item == nil || item.Snippet == nil {
		return nil
	}

	creator := &models.Creator{
		ChannelID:    item.Id,
		ChannelTitle: item.Snippet.Title,
		Description:  strPtr(item.Snippet.Description),
		UpdatedAt:    time.Now().UTC(),
	}

	if thumb := pickChannelAvatar(item.Snippet.Thumbnails); thumb != nil {
		creator.AvatarURL = strPtr(thumb.Url)
	}

	if item.BrandingSettings != nil && item.BrandingSettings.Image != nil {
		creator.BannerURL = strPtr(item.BrandingSettings.Image.BannerExternalUrl)
	}

	if item.Statistics != nil {
		creator.SubscriberCount = countPtr(int64(item.Statistics.SubscriberCount))
		creator.VideoCount = countPtr(int64(item.Statistics.VideoCount))
		creator.ViewCount = countPtr(int64(item.Statistics.ViewCount))
	}

	return creator
}

// pickThumbnail prefers medium, then high, then default. All thumbnail
// variants are optional in the API response.
func pickThumbnail(t *youtube.ThumbnailDetails) *youtube.Thumbnail {
	if t == nil {
		return nil
	}
	switch {
	case t.Medium != nil:
		return t.Medium
	case t.High != nil:
		return t.High
	default:
		return t.Default
	}
}

func pickChannelAvatar(t *youtube.ThumbnailDetails) *youtube.Thumbnail {
	if t == nil {
		return nil
	}
	if t.Medium != nil {
		return t.Medium
	}
	return t.Default
}

// Helper functions for pointer conversions

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func int64Ptr(i int64) *int64 {
	return &i
}

// countPtr maps an absent-or-zero counter to nil. The API omits like and
// comment counts when the uploader hides them, which decodes as zero.
func countPtr[T int64 | uint64](i T) *int64 {
	if i == 0 {
		return nil
	}
	v := int64(i)
	return &v
}
