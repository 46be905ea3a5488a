package models

import "time"

// Video is the mutable dimension row for a tracked YouTube video.
//
// Descriptive fields (title, description, channel title, thumbnail, country)
// are refreshed on every observation. Classification fields (duration,
// is_short, category, publish date) are set on first insert only so a video
// keeps its original classification even when later metadata drifts.
type Video struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	ChannelID    string    `db:"channel_id" json:"channel_id"`
	ChannelTitle string    `db:"channel_title" json:"channel_title"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
	ThumbURL     string    `db:"thumb_url" json:"thumb_url"`
	Duration     string    `db:"duration" json:"duration"`
	IsShort      bool      `db:"is_short" json:"is_short"`
	Width        *int64    `db:"width" json:"width,omitempty"`
	Height       *int64    `db:"height" json:"height,omitempty"`
	CountryCode  string    `db:"country_code" json:"country_code"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// VideoWithStats pairs a video with the stat observation captured alongside
// it. The pair is what the adapter transform emits and what the batch upsert
// consumes.
type VideoWithStats struct {
	Video *Video
	Stats *VideoStat
}

// RankedVideo is a leaderboard row: video dimension fields joined with the
// video's most recent stat observation.
type RankedVideo struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	ChannelID    string    `db:"channel_id" json:"channel_id"`
	ChannelTitle string    `db:"channel_title" json:"channel_title"`
	CategoryID   int64     `db:"category_id" json:"category_id"`
	ThumbURL     string    `db:"thumb_url" json:"thumb_url"`
	Duration     string    `db:"duration" json:"duration"`
	IsShort      bool      `db:"is_short" json:"is_short"`
	CountryCode  string    `db:"country_code" json:"country_code"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
	ViewCount    int64     `db:"view_count" json:"view_count"`
	LikeCount    *int64    `db:"like_count" json:"like_count,omitempty"`
	CommentCount *int64    `db:"comment_count" json:"comment_count,omitempty"`
	CapturedAt   time.Time `db:"captured_at" json:"captured_at"`
}
