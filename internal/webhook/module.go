package webhook

import (
	"fmt"

	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/pubsub"
	"github.com/flexprice/payhook/internal/pubsub/kafka"
	"github.com/flexprice/payhook/internal/pubsub/memory"
	"github.com/flexprice/payhook/internal/security"
	"github.com/flexprice/payhook/internal/svix"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook/dedupe"
	"github.com/flexprice/payhook/internal/webhook/handler"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/flexprice/payhook/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	// Core dependencies
	fx.Provide(
		// PubSub carrying accepted payment events
		providePubSub,

		// Inbound verification
		security.ResolveWebhookSecret,
		provideParser,
		dedupe.NewGuard,

		// Outbound delivery
		svix.NewClient,
	),

	// Webhook components
	fx.Provide(
		// Publisher for accepted payment events
		publisher.NewPublisher,

		// Handler fanning events out to subscribers
		handler.NewHandler,

		// Main webhook service
		NewWebhookService,
	),
)

func provideParser(cfg *config.Configuration, secret security.WebhookSecret) *parser.Parser {
	return parser.NewParser(string(secret), parser.WithTolerance(cfg.Webhook.Inbound.Tolerance()))
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	switch cfg.Webhook.Outbound.PubSub {
	case types.MemoryPubSub, "":
		return memory.NewPubSub(logger), nil
	case types.KafkaPubSub:
		return kafka.NewPubSub(cfg, logger)
	}
	return nil, fmt.Errorf("unsupported pubsub type: %s", cfg.Webhook.Outbound.PubSub)
}
