package quota

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// Manager handles YouTube API quota management. All accounting is per UTC
// day, matching the API's own reset boundary.
type Manager struct {
	repo             repository.QuotaRepository
	dailyLimit       int
	thresholdPercent int // collection stops when this % of quota is used
	log              *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a new quota manager.
func NewManager(repo repository.QuotaRepository, dailyLimit int, thresholdPercent int) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = 10000 // YouTube API v3 default
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = 90
	}

	return &Manager{
		repo:             repo,
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
		log:              logger.Named("quota"),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CheckQuotaAvailable reports whether requiredQuota units fit under today's
// threshold. The threshold sits below the hard limit so interactive reads
// against the API stay possible after collection stops.
func (m *Manager) CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *models.QuotaInfo, error) {
	info, err := m.GetQuotaInfo(ctx)
	if err != nil {
		return false, nil, err
	}

	thresholdQuota := (m.dailyLimit * m.thresholdPercent) / 100

	if info.QuotaUsed >= thresholdQuota {
		m.log.Warn("quota threshold reached",
			zap.Int("used", info.QuotaUsed),
			zap.Int("limit", m.dailyLimit),
			zap.Int("threshold", thresholdQuota))
		return false, info, nil
	}

	if info.QuotaUsed+requiredQuota > thresholdQuota {
		m.log.Warn("not enough quota for operation",
			zap.Int("required", requiredQuota),
			zap.Int("used", info.QuotaUsed),
			zap.Int("threshold", thresholdQuota))
		return false, info, nil
	}

	return true, info, nil
}

// RecordQuotaUsage adds consumed units to today's counters.
func (m *Manager) RecordQuotaUsage(ctx context.Context, quotaCost int) error {
	if quotaCost <= 0 {
		return nil
	}

	if err := m.repo.IncrementUsage(ctx, m.now(), quotaCost); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	m.log.Debug("quota usage recorded", zap.Int("cost", quotaCost))
	return nil
}

// GetQuotaInfo returns today's usage with the configured limit applied.
func (m *Manager) GetQuotaInfo(ctx context.Context) (*models.QuotaInfo, error) {
	today := m.now()

	used, operations, err := m.repo.GetUsage(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get quota info: %w", err)
	}

	remaining := m.dailyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.QuotaInfo{
		UsageDate:       today.Truncate(24 * time.Hour),
		QuotaUsed:       used,
		QuotaLimit:      m.dailyLimit,
		QuotaRemaining:  remaining,
		OperationsCount: operations,
	}, nil
}

// IsQuotaExhausted checks if the collection threshold has been reached.
func (m *Manager) IsQuotaExhausted(ctx context.Context) (bool, error) {
	info, err := m.GetQuotaInfo(ctx)
	if err != nil {
		return false, err
	}

	thresholdQuota := (m.dailyLimit * m.thresholdPercent) / 100
	return info.QuotaUsed >= thresholdQuota, nil
}
