package cache

import (
	"context"
	"time"

	"farmacia-bermat/backend/internal/domain"
)

// AuditCache stores finished AI audit reports keyed by a digest of the data
// they were computed from.
type AuditCache interface {
	Get(ctx context.Context, key string) (*domain.AuditReport, bool, error)
	Set(ctx context.Context, key string, value *domain.AuditReport, ttl time.Duration) error
}

type NoopAuditCache struct{}

func (NoopAuditCache) Get(_ context.Context, _ string) (*domain.AuditReport, bool, error) {
	return nil, false, nil
}

func (NoopAuditCache) Set(_ context.Context, _ string, _ *domain.AuditReport, _ time.Duration) error {
	return nil
}
