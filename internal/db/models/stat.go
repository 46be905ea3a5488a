package models

import "time"

// VideoStat is one append-only observation of a video's counters.
// Identity is (video_id, captured_at); rows are never updated, only inserted
// by collection cycles and deleted by the explicit anomaly cleanup pass.
type VideoStat struct {
	VideoID      string    `db:"video_id" json:"video_id"`
	CapturedAt   time.Time `db:"captured_at" json:"captured_at"`
	ViewCount    int64     `db:"view_count" json:"view_count"`
	LikeCount    *int64    `db:"like_count" json:"like_count,omitempty"`
	CommentCount *int64    `db:"comment_count" json:"comment_count,omitempty"`
}

// AnomalousStat describes a stat row whose successor shows a view-count drop
// of more than 50%, which in practice means the earlier row was bad data
// (YouTube occasionally reports inflated counts that get corrected later).
type AnomalousStat struct {
	VideoID        string    `db:"video_id" json:"video_id"`
	CapturedAt     time.Time `db:"captured_at" json:"captured_at"`
	ViewCount      int64     `db:"view_count" json:"view_count"`
	PrevCapturedAt time.Time `db:"prev_captured_at" json:"prev_captured_at"`
	PrevViewCount  int64     `db:"prev_view_count" json:"prev_view_count"`
	DecreasePct    float64   `db:"decrease_pct" json:"decrease_pct"`
}
