package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cockroachdb/errors"
	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/pubsub"
	pubsubRouter "github.com/flexprice/payhook/internal/pubsub/router"
	"github.com/flexprice/payhook/internal/sentry"
	"github.com/flexprice/payhook/internal/svix"
	"github.com/flexprice/payhook/internal/types"
	"github.com/samber/lo"
)

// Headers added to every native delivery so subscribers can dedupe retries
const (
	HeaderEventID   = "X-Payhook-Event-ID"
	HeaderEventName = "X-Payhook-Event-Name"
)

// Handler interface for fanning out payment events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub     pubsub.PubSub
	config     *config.OutboundWebhook
	client     httpclient.Client
	logger     *logger.Logger
	sentry     *sentry.Service
	svixClient *svix.Client
}

// NewHandler creates a new payment event handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
	sentry *sentry.Service,
	svixClient *svix.Client,
) (Handler, error) {
	return &handler{
		pubSub:     pubSub,
		config:     &cfg.Webhook.Outbound,
		client:     client,
		logger:     logger,
		sentry:     sentry,
		svixClient: svixClient,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"payment_webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage delivers a single payment event. Returning an error hands the
// message back to the router for retry.
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	span, ctx := h.sentry.StartConsumerSpan(ctx, h.config.Topic)
	if span != nil {
		defer span.Finish()
	}

	var event types.PaymentWebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal payment event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	ctx = types.SetClientID(ctx, event.ClientID)
	ctx = types.SetRequestID(ctx, event.RequestID)

	processSpan, ctx := h.sentry.MonitorEventProcessing(ctx, event.EventName, event.ReceivedAt, map[string]any{
		"event_id":  event.ID,
		"client_id": event.ClientID,
	})
	if processSpan != nil {
		defer processSpan.Finish()
	}

	if h.svixClient.Enabled() {
		return h.processMessageSvix(ctx, &event, msg.Payload)
	}

	return h.processMessageNative(ctx, &event, msg.Payload)
}

// processMessageSvix delivers through the Svix application of the event's client
func (h *handler) processMessageSvix(ctx context.Context, event *types.PaymentWebhookEvent, payload []byte) error {
	appID, err := h.svixClient.GetOrCreateApplication(ctx, event.ClientID)
	if err != nil {
		return err
	}

	if err := h.svixClient.SendMessage(ctx, appID, event.ID, event.EventName, payload); err != nil {
		h.logger.Errorw("failed to send payment event via Svix",
			"error", err,
			"event_id", event.ID,
			"client_id", event.ClientID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("payment event sent successfully via Svix",
		"event_id", event.ID,
		"client_id", event.ClientID,
		"event", event.EventName,
	)

	return nil
}

// subscribersFor returns the enabled subscribers that did not exclude eventName,
// sorted by name
func (h *handler) subscribersFor(eventName string) []string {
	names := lo.Filter(lo.Keys(h.config.Subscribers), func(name string, _ int) bool {
		sub := h.config.Subscribers[name]
		return sub.Enabled && sub.Endpoint != "" && !lo.Contains(sub.ExcludedEvents, eventName)
	})
	sort.Strings(names)
	return names
}

// processMessageNative posts the event to every interested subscriber. Failures
// a subscriber will never accept are dropped; the rest are returned so the
// router retries the whole message.
func (h *handler) processMessageNative(ctx context.Context, event *types.PaymentWebhookEvent, payload []byte) error {
	names := h.subscribersFor(event.EventName)
	if len(names) == 0 {
		h.logger.Debugw("no subscribers for payment event",
			"event_id", event.ID,
			"event", event.EventName,
		)
		return nil
	}

	var retryErr error
	for _, name := range names {
		sub := h.config.Subscribers[name]

		headers := lo.Assign(sub.Headers, map[string]string{
			HeaderEventID:         event.ID,
			HeaderEventName:       event.EventName,
			types.HeaderRequestID: event.RequestID,
		})

		resp, err := h.client.Send(ctx, &httpclient.Request{
			Method:  http.MethodPost,
			URL:     sub.Endpoint,
			Headers: headers,
			Body:    payload,
		})
		if err != nil {
			if !pubsubRouter.ShouldRetry(h.logger, err) {
				h.logger.Warnw("dropping payment event for subscriber",
					"error", err,
					"subscriber", name,
					"event_id", event.ID,
					"event", event.EventName,
				)
				h.sentry.AddBreadcrumb("webhook", "payment event dropped", map[string]any{
					"subscriber": name,
					"event_id":   event.ID,
				})
				continue
			}
			h.logger.Errorw("failed to send payment event",
				"error", err,
				"subscriber", name,
				"event_id", event.ID,
				"event", event.EventName,
			)
			retryErr = errors.CombineErrors(retryErr, errors.Wrapf(err, "subscriber %s", name))
			continue
		}

		h.logger.Infow("payment event sent successfully",
			"subscriber", name,
			"event_id", event.ID,
			"event", event.EventName,
			"status_code", resp.StatusCode,
		)
	}

	return retryErr
}
