package config

import (
	"time"

	"github.com/flexprice/payhook/internal/types"
)

// DefaultToleranceSeconds is the maximum accepted age of a delivery timestamp
const DefaultToleranceSeconds = 300

// Webhook represents the configuration for the webhook system
type Webhook struct {
	Inbound  InboundWebhook  `mapstructure:"inbound" validate:"required"`
	Outbound OutboundWebhook `mapstructure:"outbound"`
}

// InboundWebhook configures verification of deliveries from the payment service
type InboundWebhook struct {
	Secret           string        `mapstructure:"secret" validate:"required_without=EncryptedSecret"`
	EncryptedSecret  string        `mapstructure:"encrypted_secret"`
	ToleranceSeconds int           `mapstructure:"tolerance_seconds" validate:"gte=0"`
	RateLimit        float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst        int           `mapstructure:"rate_burst" validate:"gte=0"`
	DedupeTTL        time.Duration `mapstructure:"dedupe_ttl"`
}

// Tolerance returns the freshness window as a duration
func (w InboundWebhook) Tolerance() time.Duration {
	return time.Duration(w.ToleranceSeconds) * time.Second
}

// OutboundWebhook configures fan-out of accepted payment events
type OutboundWebhook struct {
	Enabled         bool                        `mapstructure:"enabled"`
	Topic           string                      `mapstructure:"topic" validate:"required_if=Enabled true"`
	PubSub          types.PubSubType            `mapstructure:"pubsub" validate:"omitempty,oneof=memory kafka"`
	MaxRetries      int                         `mapstructure:"max_retries"`
	InitialInterval time.Duration               `mapstructure:"initial_interval"`
	MaxInterval     time.Duration               `mapstructure:"max_interval"`
	Multiplier      float64                     `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration               `mapstructure:"max_elapsed_time"`
	Subscribers     map[string]SubscriberConfig `mapstructure:"subscribers" validate:"dive"`
	Svix            Svix                        `mapstructure:"svix"`
}

// SubscriberConfig represents an internal endpoint receiving payment events
type SubscriberConfig struct {
	Endpoint       string            `mapstructure:"endpoint" validate:"omitempty,url"`
	Headers        map[string]string `mapstructure:"headers"`
	Enabled        bool              `mapstructure:"enabled"`
	ExcludedEvents []string          `mapstructure:"excluded_events"`
}

// Svix configures delivery through Svix instead of direct HTTP calls
type Svix struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"auth_token" validate:"required_if=Enabled true"`
	BaseURL   string `mapstructure:"base_url"`
}
