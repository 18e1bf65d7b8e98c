package kafka

import (
	"crypto/tls"
	"time"

	"github.com/Shopify/sarama"
	"github.com/flexprice/payhook/internal/config"
)

// applySaramaConfig sets client id, TLS and SASL options shared by producer and consumer
func applySaramaConfig(saramaConfig *sarama.Config, cfg *config.KafkaConfig) *sarama.Config {
	saramaConfig.Version = sarama.V2_1_0_0

	// Configure client ID regardless of SASL
	saramaConfig.ClientID = cfg.ClientID

	if cfg.TLS {
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	if !cfg.UseSASL {
		return saramaConfig
	}

	// SASL specific configs
	saramaConfig.Net.SASL.Enable = true
	saramaConfig.Net.TLS.Enable = true
	saramaConfig.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.SASLMechanism)
	saramaConfig.Net.SASL.User = cfg.SASLUser
	saramaConfig.Net.SASL.Password = cfg.SASLPassword

	return saramaConfig
}

// subscriberSaramaConfig starts new consumer groups at the oldest offset so no
// accepted payment event is skipped
func subscriberSaramaConfig(cfg *config.KafkaConfig) *sarama.Config {
	saramaConfig := applySaramaConfig(sarama.NewConfig(), cfg)
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 5 * time.Second
	saramaConfig.Consumer.Offsets.Retry.Max = 3
	return saramaConfig
}

// publisherSaramaConfig waits for all in-sync replicas, the HTTP response to
// the payment service is only sent after the event is durable
func publisherSaramaConfig(cfg *config.KafkaConfig) *sarama.Config {
	saramaConfig := applySaramaConfig(sarama.NewConfig(), cfg)
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	return saramaConfig
}
