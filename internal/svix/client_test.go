package svix

import (
	"context"
	"testing"

	"github.com/flexprice/payhook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Outbound.Svix.Enabled = false

	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	appID, err := client.GetOrCreateApplication(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Empty(t, appID)
	assert.NoError(t, client.SendMessage(context.Background(), "app", "pwh_1", "payment.buy.completed", []byte(`{}`)))
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Outbound.Svix.Enabled = true
	cfg.Webhook.Outbound.Svix.AuthToken = "testsk_abc"
	cfg.Webhook.Outbound.Svix.BaseURL = "://bad"

	_, err := NewClient(cfg)
	assert.Error(t, err)
}

func TestApplicationUID(t *testing.T) {
	assert.Equal(t, "payhook_client-1", ApplicationUID("client-1"))
}
