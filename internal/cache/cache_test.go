package cache

import (
	"context"
	"testing"
	"time"

	"farmacia-bermat/backend/internal/domain"
)

func TestNoopAuditCacheNeverHits(t *testing.T) {
	var c AuditCache = NoopAuditCache{}
	ctx := context.Background()

	if err := c.Set(ctx, "k", &domain.AuditReport{Summary: "ok"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || ok || got != nil {
		t.Fatalf("expected miss, got %v %v %v", got, ok, err)
	}
}

func TestRedisAuditCacheImplementsInterface(t *testing.T) {
	var _ AuditCache = (*RedisAuditCache)(nil)
}
