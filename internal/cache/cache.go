package cache

import (
	"context"
	"time"

	"giribazar/backend/internal/domain"
)

// ReportCache holds short-lived profit/loss snapshots. Report reads
// tolerate slightly stale totals, so cached values never need
// invalidation beyond their TTL.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.ProfitLossSnapshot, bool, error)
	Set(ctx context.Context, key string, value *domain.ProfitLossSnapshot, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.ProfitLossSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.ProfitLossSnapshot, _ time.Duration) error {
	return nil
}
