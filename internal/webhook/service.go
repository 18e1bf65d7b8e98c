package webhook

import (
	"context"
	"time"

	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
	pubsubRouter "github.com/flexprice/payhook/internal/pubsub/router"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook/dedupe"
	"github.com/flexprice/payhook/internal/webhook/handler"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/flexprice/payhook/internal/webhook/publisher"
)

// AcceptResult describes what happened to an inbound delivery
type AcceptResult struct {
	EventID   string
	EventName string
	Duplicate bool
}

// WebhookService orchestrates payment webhook operations
type WebhookService struct {
	config    *config.Configuration
	parser    *parser.Parser
	guard     *dedupe.Guard
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	logger    *logger.Logger
	now       func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	p *parser.Parser,
	guard *dedupe.Guard,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		parser:    p,
		guard:     guard,
		publisher: publisher,
		handler:   h,
		logger:    l,
		now:       time.Now,
	}
}

// Accept verifies a raw delivery and queues it for fan-out. Parser errors are
// returned untouched so callers can map them to 400/401. A repeated
// transaction/status is acknowledged without publishing again.
func (s *WebhookService) Accept(ctx context.Context, rawBody string, headers parser.Headers) (*AcceptResult, error) {
	payload, err := s.parser.Parse(rawBody, headers)
	if err != nil {
		s.logger.Infow("rejected payment webhook",
			"error", err,
			"request_id", types.GetRequestID(ctx),
		)
		return nil, err
	}

	ctx = types.SetClientID(ctx, payload.Data.ClientID)

	event, err := publisher.NewEvent(ctx, payload, s.now())
	if err != nil {
		return nil, err
	}

	result := &AcceptResult{
		EventID:   event.ID,
		EventName: event.EventName,
	}

	if !s.config.Webhook.Outbound.Enabled {
		s.logger.Debugw("outbound delivery disabled, not publishing",
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return result, nil
	}

	firstID, claimed := s.guard.Claim(ctx, &payload.Data, event.ID)
	if !claimed {
		result.EventID = firstID
		result.Duplicate = true
		return result, nil
	}

	if err := s.publisher.PublishWebhook(ctx, event); err != nil {
		// let the payment service's retry go through
		s.guard.Release(ctx, &payload.Data)
		return nil, err
	}

	return result, nil
}

// RegisterHandler registers the fan-out handler on the router
func (s *WebhookService) RegisterHandler(router *pubsubRouter.Router) {
	if !s.config.Webhook.Outbound.Enabled {
		s.logger.Info("outbound payment webhooks disabled")
		return
	}
	s.handler.RegisterHandler(router)
}

// Stop closes the publisher and the pubsub behind it
func (s *WebhookService) Stop() error {
	s.logger.Debug("stopping webhook service")

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return ierr.WithError(err).
			WithMessage("failed to close webhook publisher").
			Mark(ierr.ErrSystem)
	}

	s.logger.Info("webhook service stopped successfully")
	return nil
}
