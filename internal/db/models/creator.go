package models

import "time"

// Creator is the channel profile dimension, refreshed opportunistically when
// a collected video references a channel that is missing or stale.
type Creator struct {
	ChannelID       string    `db:"channel_id" json:"channel_id"`
	ChannelTitle    string    `db:"channel_title" json:"channel_title"`
	Description     *string   `db:"description" json:"description,omitempty"`
	AvatarURL       *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	BannerURL       *string   `db:"banner_url" json:"banner_url,omitempty"`
	SubscriberCount *int64    `db:"subscriber_count" json:"subscriber_count,omitempty"`
	VideoCount      *int64    `db:"video_count" json:"video_count,omitempty"`
	ViewCount       *int64    `db:"view_count" json:"view_count,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// RankedCreator is a top-creators row: aggregates over each of the channel's
// videos' latest stat observations, left-joined with the optional profile.
type RankedCreator struct {
	ChannelID       string    `db:"channel_id" json:"channel_id"`
	ChannelTitle    string    `db:"channel_title" json:"channel_title"`
	VideoCount      int64     `db:"video_count" json:"video_count"`
	TotalViews      int64     `db:"total_views" json:"total_views"`
	AvgViews        float64   `db:"avg_views" json:"avg_views"`
	LatestCapture   time.Time `db:"latest_capture" json:"latest_capture"`
	Description     *string   `db:"description" json:"description,omitempty"`
	AvatarURL       *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	SubscriberCount *int64    `db:"subscriber_count" json:"subscriber_count,omitempty"`

	// Videos is populated only for include_videos queries.
	Videos []*RankedVideo `db:"-" json:"videos,omitempty"`
}
