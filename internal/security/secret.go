package security

import (
	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
)

// WebhookSecret is the resolved shared secret used to verify inbound deliveries
type WebhookSecret string

// ResolveWebhookSecret returns the inbound secret from config. A plaintext
// secret wins; otherwise encrypted_secret is decrypted with the master key.
func ResolveWebhookSecret(cfg *config.Configuration, logger *logger.Logger) (WebhookSecret, error) {
	inbound := cfg.Webhook.Inbound

	if inbound.Secret != "" {
		logger.Infow("using plaintext inbound webhook secret",
			"fingerprint", Fingerprint(inbound.Secret)[:12],
		)
		return WebhookSecret(inbound.Secret), nil
	}

	if inbound.EncryptedSecret == "" {
		return "", ierr.NewError("inbound webhook secret not configured").
			WithHint("Set webhook.inbound.secret or webhook.inbound.encrypted_secret").
			Mark(ierr.ErrValidation)
	}

	svc, err := NewEncryptionService(cfg, logger)
	if err != nil {
		return "", err
	}

	secret, err := svc.Decrypt(inbound.EncryptedSecret)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", ierr.NewError("decrypted inbound webhook secret is empty").
			WithHint("Regenerate webhook.inbound.encrypted_secret").
			Mark(ierr.ErrValidation)
	}

	logger.Infow("using encrypted inbound webhook secret",
		"fingerprint", svc.Hash(secret)[:12],
	)
	return WebhookSecret(secret), nil
}
