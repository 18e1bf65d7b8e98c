package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/flexprice/payhook/internal/cache"
	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/testutil"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook/dedupe"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/flexprice/payhook/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

const testSecret = "whsec_test"

type failingPublisher struct {
	fail      bool
	failClose bool
	calls     int
}

func (f *failingPublisher) PublishWebhook(_ context.Context, _ *types.PaymentWebhookEvent) error {
	f.calls++
	if f.fail {
		return errors.New("broker unavailable")
	}
	return nil
}

func (f *failingPublisher) Close() error {
	if f.failClose {
		return errors.New("producer already closed")
	}
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	cfg     *config.Configuration
	now     time.Time
	pubSub  *testutil.InMemoryPubSub
	service *WebhookService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.cfg = config.GetDefaultConfig()
	s.now = time.Unix(1760000000, 0)
	s.pubSub = testutil.NewInMemoryPubSub()

	log := logger.NewNoopLogger()
	pub, err := publisher.NewPublisher(s.pubSub, s.cfg, log)
	s.Require().NoError(err)

	s.service = s.newService(pub)
}

func (s *ServiceSuite) newService(pub publisher.WebhookPublisher) *WebhookService {
	log := logger.NewNoopLogger()
	p := parser.NewParser(testSecret, parser.WithClock(func() time.Time { return s.now }))
	svc := NewWebhookService(s.cfg, p, dedupe.NewGuard(cache.NewInMemoryCache(), s.cfg, log), pub, nil, log)
	svc.now = func() time.Time { return s.now }
	return svc
}

func (s *ServiceSuite) delivery(status types.PaymentWebhookStatus) (string, parser.Headers) {
	body, err := json.Marshal(map[string]any{
		"version": 2,
		"data": map[string]any{
			"transactionId":         "tx_1",
			"paymentId":             "pay_1",
			"clientId":              "client_1",
			"action":                "BUY",
			"status":                string(status),
			"originToken":           "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"originAmount":          "100",
			"destinationToken":      "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
			"destinationAmount":     "99.5",
			"sender":                "0x2a4f24F935Eb178e3e7BA9B53A5Ee6d8407C0709",
			"receiver":              "0x0c0b9a5e0a4E1a5b9B0A3D3c6C1c2C1d3E4f5a6B",
			"type":                  "onchain",
			"transactions":          []any{},
			"developerFeeBps":       0,
			"developerFeeRecipient": "0x1111111111111111111111111111111111111111",
			"purchaseData":          map[string]any{},
		},
	})
	s.Require().NoError(err)

	ts := strconv.FormatInt(s.now.Unix(), 10)
	return string(body), parser.Headers{
		"x-payload-signature": parser.Sign(string(body), ts, testSecret),
		"x-timestamp":         ts,
	}
}

func (s *ServiceSuite) TestAccept() {
	body, headers := s.delivery(types.PaymentWebhookStatusCompleted)

	result, err := s.service.Accept(s.ctx, body, headers)
	s.Require().NoError(err)
	s.False(result.Duplicate)
	s.Equal("payment.buy.completed", result.EventName)
	s.Regexp(`^pwh_`, result.EventID)

	msgs := s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic)
	s.Require().Len(msgs, 1)
	s.Equal(result.EventID, msgs[0].UUID)
}

func (s *ServiceSuite) TestAccept_Duplicate() {
	body, headers := s.delivery(types.PaymentWebhookStatusPending)

	first, err := s.service.Accept(s.ctx, body, headers)
	s.Require().NoError(err)

	second, err := s.service.Accept(s.ctx, body, headers)
	s.Require().NoError(err)
	s.True(second.Duplicate)
	s.Equal(first.EventID, second.EventID)
	s.Len(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic), 1)

	body, headers = s.delivery(types.PaymentWebhookStatusCompleted)
	third, err := s.service.Accept(s.ctx, body, headers)
	s.Require().NoError(err)
	s.False(third.Duplicate)
	s.Len(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic), 2)
}

func (s *ServiceSuite) TestAccept_RejectedDelivery() {
	body, headers := s.delivery(types.PaymentWebhookStatusCompleted)
	headers["x-payload-signature"] = "deadbeef"

	_, err := s.service.Accept(s.ctx, body, headers)
	s.Require().Error(err)
	s.True(ierr.Is(err, parser.ErrInvalidSignature))
	s.Equal("Invalid webhook signature", err.Error())
	s.Empty(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic))
}

func (s *ServiceSuite) TestAccept_PublishFailureReleasesClaim() {
	pub := &failingPublisher{fail: true}
	svc := s.newService(pub)
	body, headers := s.delivery(types.PaymentWebhookStatusFailed)

	_, err := svc.Accept(s.ctx, body, headers)
	s.Require().Error(err)

	pub.fail = false
	result, err := svc.Accept(s.ctx, body, headers)
	s.Require().NoError(err)
	s.False(result.Duplicate, "a failed publish must not mark the delivery as seen")
	s.Equal(2, pub.calls)
}

func (s *ServiceSuite) TestAccept_OutboundDisabled() {
	s.cfg.Webhook.Outbound.Enabled = false
	body, headers := s.delivery(types.PaymentWebhookStatusCompleted)

	result, err := s.service.Accept(s.ctx, body, headers)
	s.Require().NoError(err)
	s.False(result.Duplicate)
	s.Empty(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic))
}

func (s *ServiceSuite) TestStop() {
	s.NoError(s.service.Stop())

	svc := s.newService(&failingPublisher{failClose: true})
	err := svc.Stop()
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrSystem))
	s.Contains(err.Error(), "failed to close webhook publisher")
}
