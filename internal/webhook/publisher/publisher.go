package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/pubsub"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/validator"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/shopspring/decimal"
)

// Message metadata keys set on every published payment event
const (
	MetadataClientID  = "client_id"
	MetadataEventName = "event_name"
)

// WebhookPublisher publishes accepted payment webhooks for fan-out
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, event *types.PaymentWebhookEvent) error
	Close() error
}

type webhookPublisher struct {
	pubSub pubsub.PubSub
	config *config.OutboundWebhook
	logger *logger.Logger
}

// NewPublisher creates a publisher writing to webhook.outbound.topic
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) (WebhookPublisher, error) {
	return &webhookPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook.Outbound,
		logger: logger,
	}, nil
}

// NewEvent builds the internal event for a verified delivery
func NewEvent(ctx context.Context, payload *parser.Payload, receivedAt time.Time) (*types.PaymentWebhookEvent, error) {
	data := payload.Data

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode payment webhook data").
			Mark(ierr.ErrSystem)
	}

	return &types.PaymentWebhookEvent{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_WEBHOOK_EVENT),
		EventName:         types.PaymentWebhookEventName(data.Action, data.Status),
		ClientID:          data.ClientID,
		TransactionID:     data.TransactionID,
		PaymentID:         data.PaymentID,
		Action:            data.Action,
		Status:            data.Status,
		Receiver:          data.Receiver,
		OriginAmount:      parseAmount(data.OriginAmount),
		DestinationAmount: parseAmount(data.DestinationAmount),
		RequestID:         types.GetRequestID(ctx),
		ReceivedAt:        receivedAt.UTC(),
		Payload:           raw,
	}, nil
}

// parseAmount keeps amounts exact. Amounts are free-form strings on the wire
// so an unparseable one is published as null and the raw value stays in Payload.
func parseAmount(amount string) decimal.NullDecimal {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func (p *webhookPublisher) PublishWebhook(ctx context.Context, event *types.PaymentWebhookEvent) error {
	if err := validator.ValidateStruct(event); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode payment event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(MetadataClientID, event.ClientID)
	msg.Metadata.Set(MetadataEventName, event.EventName)
	if event.RequestID != "" {
		middleware.SetCorrelationID(event.RequestID, msg)
	}

	p.logger.Debugw("publishing payment event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"client_id", event.ClientID,
		"topic", p.config.Topic,
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish payment event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"client_id", event.ClientID,
		)
		return ierr.WithError(err).
			WithHint("Failed to queue payment event, please retry").
			Mark(ierr.ErrSystem)
	}

	p.logger.Infow("successfully published payment event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"client_id", event.ClientID,
	)

	return nil
}

// Close closes the publisher
func (p *webhookPublisher) Close() error {
	return p.pubSub.Close()
}
