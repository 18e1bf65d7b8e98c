package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Webhook    Webhook          `mapstructure:"webhook" validate:"required"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required,oneof=local api consumer aws_lambda_api"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type SecretsConfig struct {
	EncryptionKey string `mapstructure:"encryption_key"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/payhook")

	// Set up environment variables support
	v.SetEnvPrefix("PAYHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key viper should know about so env overrides
// reach Unmarshal even when no config file is present
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))

	v.SetDefault("webhook.inbound.secret", "")
	v.SetDefault("webhook.inbound.encrypted_secret", "")
	v.SetDefault("webhook.inbound.tolerance_seconds", DefaultToleranceSeconds)
	v.SetDefault("webhook.inbound.rate_limit", 50)
	v.SetDefault("webhook.inbound.rate_burst", 100)
	v.SetDefault("webhook.inbound.dedupe_ttl", 24*time.Hour)

	v.SetDefault("webhook.outbound.enabled", true)
	v.SetDefault("webhook.outbound.topic", "payment_webhooks")
	v.SetDefault("webhook.outbound.pubsub", string(types.MemoryPubSub))
	v.SetDefault("webhook.outbound.max_retries", 3)
	v.SetDefault("webhook.outbound.initial_interval", time.Second)
	v.SetDefault("webhook.outbound.max_interval", 10*time.Second)
	v.SetDefault("webhook.outbound.multiplier", 2.0)
	v.SetDefault("webhook.outbound.max_elapsed_time", 2*time.Minute)
	v.SetDefault("webhook.outbound.svix.enabled", false)
	v.SetDefault("webhook.outbound.svix.base_url", "https://api.svix.com")
	v.SetDefault("webhook.outbound.svix.auth_token", "")

	v.SetDefault("kafka.brokers", []string{"localhost:29092"})
	v.SetDefault("kafka.consumer_group", "payhook")
	v.SetDefault("kafka.client_id", "payhook")
	v.SetDefault("kafka.tls", false)
	v.SetDefault("kafka.use_sasl", false)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("secrets.encryption_key", "")
}

// LocalDevSecret is the inbound secret shipped in config.yaml for local runs
const LocalDevSecret = "local-dev-webhook-secret"

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.validateDeployment()
}

// validateDeployment requires kafka whenever the API and the fan-out router
// may run in different processes. An in-memory queue is only read by the
// router of the process that wrote to it.
func (c Configuration) validateDeployment() error {
	if c.Deployment.Mode == types.ModeLocal || !c.Webhook.Outbound.Enabled {
		return nil
	}
	if c.Webhook.Outbound.PubSub == types.KafkaPubSub {
		return nil
	}
	return ierr.NewError("outbound pubsub must be kafka outside local mode").
		WithHintf("Set webhook.outbound.pubsub to %s when deployment.mode is %s", types.KafkaPubSub, c.Deployment.Mode).
		WithReportableDetails(map[string]any{
			"mode":   c.Deployment.Mode,
			"pubsub": c.Webhook.Outbound.PubSub,
		}).
		Mark(ierr.ErrValidation)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Webhook: Webhook{
			Inbound: InboundWebhook{
				Secret:           LocalDevSecret,
				ToleranceSeconds: DefaultToleranceSeconds,
				RateLimit:        50,
				RateBurst:        100,
				DedupeTTL:        24 * time.Hour,
			},
			Outbound: OutboundWebhook{
				Enabled:         true,
				Topic:           "payment_webhooks",
				PubSub:          types.MemoryPubSub,
				MaxRetries:      3,
				InitialInterval: time.Second,
				MaxInterval:     10 * time.Second,
				Multiplier:      2,
				MaxElapsedTime:  2 * time.Minute,
			},
		},
	}
}
