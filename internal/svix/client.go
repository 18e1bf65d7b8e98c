package svix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/flexprice/payhook/internal/config"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client wraps the Svix SDK client. One Svix application is kept per payment
// client id.
type Client struct {
	client  *svix.Svix
	baseURL string
	enabled bool
}

// NewClient creates a new Svix client
func NewClient(config *config.Configuration) (*Client, error) {
	if !config.Webhook.Outbound.Svix.Enabled {
		return &Client{
			enabled: false,
		}, nil
	}

	serverURL, err := url.Parse(config.Webhook.Outbound.Svix.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	svixClient, err := svix.New(config.Webhook.Outbound.Svix.AuthToken, &svix.SvixOptions{
		ServerUrl: serverURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create svix client: %w", err)
	}

	return &Client{
		client:  svixClient,
		baseURL: config.Webhook.Outbound.Svix.BaseURL,
		enabled: true,
	}, nil
}

// Enabled reports whether deliveries go through Svix
func (c *Client) Enabled() bool {
	return c.enabled && c.client != nil
}

// ApplicationUID returns the Svix application uid used for a payment client
func ApplicationUID(clientID string) string {
	return fmt.Sprintf("payhook_%s", clientID)
}

// GetOrCreateApplication gets or creates the Svix application for clientID
func (c *Client) GetOrCreateApplication(ctx context.Context, clientID string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	appID := ApplicationUID(clientID)

	_, err := c.client.Application.Get(ctx, appID)
	if err == nil {
		return appID, nil
	}

	app, err := c.client.Application.Create(ctx, models.ApplicationIn{
		Name: appID,
		Uid:  &appID,
	}, &svix.ApplicationCreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}

	return app.Id, nil
}

// SendMessage sends a payment event to the given application. eventID is used
// as idempotency key so router retries do not duplicate deliveries.
func (c *Client) SendMessage(ctx context.Context, applicationID, eventID, eventType string, payload []byte) error {
	if !c.Enabled() {
		return nil
	}

	var payloadMap map[string]any
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	_, err := c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventId:   &eventID,
		EventType: eventType,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{
		IdempotencyKey: &eventID,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
