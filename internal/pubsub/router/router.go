package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/pubsub"
	"github.com/flexprice/payhook/internal/sentry"
)

// DLQSuffix is appended to a topic name to build its poison queue topic
const DLQSuffix = "_dlq"

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	config *config.OutboundWebhook
}

// NewRouter creates a new message router. Messages that exhaust their retries
// are moved to <topic>_dlq on the same pubsub.
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service, ps pubsub.PubSub) (*Router, error) {
	outbound := cfg.Webhook.Outbound

	router, err := message.NewRouter(
		message.RouterConfig{},
		logger.GetWatermillLogger(),
	)
	if err != nil {
		return nil, err
	}

	poisonQueue, err := middleware.PoisonQueue(&dlqPublisher{pubSub: ps}, outbound.Topic+DLQSuffix)
	if err != nil {
		return nil, err
	}

	// Add middleware in correct order
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,     // Recover from panics
		middleware.CorrelationID, // Add correlation IDs
		middleware.Retry{
			MaxRetries:          outbound.MaxRetries,
			InitialInterval:     outbound.InitialInterval,
			MaxInterval:         outbound.MaxInterval,
			Multiplier:          outbound.Multiplier,
			MaxElapsedTime:      outbound.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              logger.GetWatermillLogger(),
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying payment event delivery",
					"retry_number", retryNum,
					"max_retries", outbound.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
		config: &outbound,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.sentry.CaptureException(err)
				r.logger.Errorw("handler failed",
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)

	for _, middleware := range middlewares {
		handler.AddMiddleware(middleware)
	}
}

// Run starts the router and blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting router")
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing router")
	return r.router.Close()
}

// dlqPublisher exposes a PubSub as a watermill publisher for the poison queue
type dlqPublisher struct {
	pubSub pubsub.PubSub
}

func (d *dlqPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if err := d.pubSub.Publish(msg.Context(), topic, msg); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op, the underlying pubsub is closed by its owner
func (d *dlqPublisher) Close() error {
	return nil
}
