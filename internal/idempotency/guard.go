// Package idempotency deduplicates provider webhook deliveries by payment id.
//
// Redis is a best-effort fast path shared across instances; the payments
// table's unique index on provider_payment_id stays authoritative. A cold or
// unavailable cache degrades to database lookups, never to double-processing.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PaymentLookup is the authoritative record of processed payments.
type PaymentLookup interface {
	FindPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
}

type Guard struct {
	redis redis.Cmdable // nil when Redis is not configured
	store PaymentLookup
	ttl   time.Duration
}

func NewGuard(rdb redis.Cmdable, store PaymentLookup, ttl time.Duration) *Guard {
	return &Guard{redis: rdb, store: store, ttl: ttl}
}

func key(providerPaymentID string) string {
	return "webhook:payment:" + providerPaymentID
}

// AlreadyProcessed reports whether the provider payment has been recorded,
// returning the existing payment row on a database hit. A Redis hit short
// circuits the database; Redis errors fall through to the database.
func (g *Guard) AlreadyProcessed(ctx context.Context, providerPaymentID string) (*models.Payment, bool, error) {
	if g.redis != nil {
		n, err := g.redis.Exists(ctx, key(providerPaymentID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			zap.L().Warn("idempotency cache lookup failed",
				zap.String("provider_payment_id", providerPaymentID),
				zap.Error(err))
		} else if n > 0 {
			return nil, true, nil
		}
	}

	p, err := g.store.FindPaymentByProviderID(ctx, providerPaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	g.MarkProcessed(ctx, providerPaymentID)
	return p, true, nil
}

// MarkProcessed records the payment id in the cache. Failures are logged and
// swallowed; the database remains the source of truth.
func (g *Guard) MarkProcessed(ctx context.Context, providerPaymentID string) {
	if g.redis == nil {
		return
	}
	if err := g.redis.Set(ctx, key(providerPaymentID), "1", g.ttl).Err(); err != nil {
		zap.L().Warn("idempotency cache write failed",
			zap.String("provider_payment_id", providerPaymentID),
			zap.Error(err))
	}
}
