// Package models holds the HTTP-facing DTOs.
package models

import (
	"time"

	dbmodels "github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// ErrorResponse is the structured error envelope every endpoint returns.
// Internal error details never leave the process; Message is safe for
// clients.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// LeaderboardResponse wraps a ranked video board.
type LeaderboardResponse struct {
	Board       string                  `json:"board"`
	Category    *dbmodels.Category      `json:"category,omitempty"`
	CountryCode string                  `json:"country_code,omitempty"`
	Count       int                     `json:"count"`
	Videos      []*dbmodels.RankedVideo `json:"videos"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// CreatorsResponse wraps the top-creators board.
type CreatorsResponse struct {
	Count       int                       `json:"count"`
	Creators    []*dbmodels.RankedCreator `json:"creators"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// CreatorResponse wraps one creator profile with its ranked videos.
type CreatorResponse struct {
	Creator *dbmodels.Creator       `json:"creator"`
	Videos  []*dbmodels.RankedVideo `json:"videos,omitempty"`
}

// CategoriesResponse wraps the category taxonomy.
type CategoriesResponse struct {
	Count      int                  `json:"count"`
	Categories []*dbmodels.Category `json:"categories"`
}

// TriggerResponse reports a synchronously executed collection run.
type TriggerResponse struct {
	Success    bool      `json:"success"`
	RunID      string    `json:"run_id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Statistics any       `json:"statistics"`
}
