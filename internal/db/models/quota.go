package models

import "time"

// QuotaInfo tracks YouTube Data API quota consumption for one UTC day.
type QuotaInfo struct {
	UsageDate       time.Time `db:"usage_date" json:"usage_date"`
	QuotaUsed       int       `db:"quota_used" json:"quota_used"`
	QuotaLimit      int       `db:"quota_limit" json:"quota_limit"`
	QuotaRemaining  int       `db:"quota_remaining" json:"quota_remaining"`
	OperationsCount int       `db:"operations_count" json:"operations_count"`
}
