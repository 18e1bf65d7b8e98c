package dedupe

import (
	"context"
	"time"

	"github.com/flexprice/payhook/internal/cache"
	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/webhook/parser"
)

// Guard drops repeated deliveries of the same transaction status. The payment
// service retries until it gets a 2xx, so duplicates are expected.
type Guard struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewGuard creates a guard remembering deliveries for the configured dedupe TTL.
// A zero TTL disables deduplication.
func NewGuard(c cache.Cache, cfg *config.Configuration, logger *logger.Logger) *Guard {
	return &Guard{
		cache:  c,
		ttl:    cfg.Webhook.Inbound.DedupeTTL,
		logger: logger,
	}
}

func key(data *parser.DataV2) string {
	return cache.GenerateKey(cache.PrefixPaymentWebhook, data.TransactionID, data.Status)
}

// Claim records eventID for the transaction/status pair of data. It returns
// true the first time the pair is seen within the TTL. On a duplicate it
// returns false and the event id of the first delivery.
func (g *Guard) Claim(ctx context.Context, data *parser.DataV2, eventID string) (string, bool) {
	if g.ttl <= 0 {
		return eventID, true
	}

	k := key(data)
	span := cache.StartCacheSpan(ctx, "add", k)
	defer cache.FinishSpan(span)

	if g.cache.Add(ctx, k, eventID, g.ttl) {
		return eventID, true
	}

	firstID, _ := g.cache.Get(ctx, k)
	existing, _ := firstID.(string)
	g.logger.Infow("duplicate payment webhook delivery",
		"transaction_id", data.TransactionID,
		"status", data.Status,
		"event_id", existing,
	)
	return existing, false
}

// Release forgets a claim so the next delivery of the pair is processed again
func (g *Guard) Release(ctx context.Context, data *parser.DataV2) {
	if g.ttl <= 0 {
		return
	}
	g.cache.Delete(ctx, key(data))
}
