package internal

import (
	"fmt"

	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/security"
)

// GenerateWebhookSecret prints a random 256-bit hex secret. When
// secrets.encryption_key is configured it also prints the value to use for
// webhook.inbound.encrypted_secret.
func GenerateWebhookSecret() error {
	secret, err := security.GenerateRandomKey()
	if err != nil {
		return err
	}
	fmt.Println("Generated webhook secret (hex):", secret)

	cfg, err := config.NewConfig()
	if err != nil {
		cfg = config.GetDefaultConfig()
	}
	if cfg.Secrets.EncryptionKey == "" {
		fmt.Println("secrets.encryption_key not set, skipping encrypted form")
		return nil
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	svc, err := security.NewEncryptionService(cfg, log)
	if err != nil {
		return err
	}

	encrypted, err := svc.Encrypt(secret)
	if err != nil {
		return err
	}
	fmt.Println("Encrypted secret (webhook.inbound.encrypted_secret):", encrypted)
	return nil
}
