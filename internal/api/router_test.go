package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/payhook/internal/api/dto"
	v1 "github.com/flexprice/payhook/internal/api/v1"
	"github.com/flexprice/payhook/internal/cache"
	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/testutil"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook"
	"github.com/flexprice/payhook/internal/webhook/dedupe"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/flexprice/payhook/internal/webhook/publisher"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

const testSecret = "whsec_router_test"

type RouterSuite struct {
	suite.Suite
	cfg    *config.Configuration
	pubSub *testutil.InMemoryPubSub
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.cfg.Webhook.Inbound.RateLimit = 0
	s.pubSub = testutil.NewInMemoryPubSub()

	log := logger.NewNoopLogger()
	pub, err := publisher.NewPublisher(s.pubSub, s.cfg, log)
	s.Require().NoError(err)

	svc := webhook.NewWebhookService(
		s.cfg,
		parser.NewParser(testSecret),
		dedupe.NewGuard(cache.NewInMemoryCache(), s.cfg, log),
		pub,
		nil,
		log,
	)

	s.router = NewRouter(Handlers{
		Health:         v1.NewHealthHandler(log),
		PaymentWebhook: v1.NewPaymentWebhookHandler(svc, log),
	}, s.cfg, log)
}

func (s *RouterSuite) body(mutate func(data map[string]any)) string {
	data := map[string]any{
		"transactionId":         "tx_router",
		"paymentId":             "pay_router",
		"paymentLinkId":         "plink_router",
		"clientId":              "client_router",
		"action":                "TRANSFER",
		"status":                "COMPLETED",
		"originToken":           "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		"originAmount":          "5",
		"destinationToken":      "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
		"destinationAmount":     "5",
		"sender":                "0x2a4f24F935Eb178e3e7BA9B53A5Ee6d8407C0709",
		"receiver":              "0x0c0b9a5e0a4E1a5b9B0A3D3c6C1c2C1d3E4f5a6B",
		"type":                  "onchain",
		"transactions":          []any{},
		"developerFeeBps":       10,
		"developerFeeRecipient": "0x1111111111111111111111111111111111111111",
		"purchaseData":          map[string]any{"sku": "a"},
	}
	if mutate != nil {
		mutate(data)
	}
	b, err := json.Marshal(map[string]any{"version": 2, "data": data})
	s.Require().NoError(err)
	return string(b)
}

func (s *RouterSuite) post(body string, sentAt time.Time, secret string, signatureHeader string) *httptest.ResponseRecorder {
	ts := strconv.FormatInt(sentAt.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signatureHeader != "" {
		req.Header.Set(signatureHeader, parser.Sign(body, ts, secret))
		req.Header.Set("X-Timestamp", ts)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decodeError(w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) TestAccepted() {
	w := s.post(s.body(nil), time.Now(), testSecret, "X-Payload-Signature")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))

	var resp dto.PaymentWebhookResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Received)
	s.False(resp.Duplicate)
	s.Equal("payment.transfer.completed", resp.EventName)
	s.Len(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic), 1)

	// payment service retry of the same delivery
	w = s.post(s.body(nil), time.Now(), testSecret, "X-Pay-Signature")
	s.Require().Equal(http.StatusOK, w.Code)
	var dup dto.PaymentWebhookResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &dup))
	s.True(dup.Duplicate)
	s.Equal(resp.EventID, dup.EventID)
	s.Len(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic), 1)
}

func (s *RouterSuite) TestRejected() {
	tests := []struct {
		name        string
		body        string
		sentAt      time.Time
		secret      string
		sigHeader   string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing headers",
			body:        s.body(nil),
			sentAt:      time.Now(),
			secret:      testSecret,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing required webhook headers: signature or timestamp",
		},
		{
			name:        "wrong secret",
			body:        s.body(nil),
			sentAt:      time.Now(),
			secret:      "other",
			sigHeader:   "X-Payload-Signature",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid webhook signature",
		},
		{
			name:        "stale",
			body:        s.body(nil),
			sentAt:      time.Now().Add(-10 * time.Minute),
			secret:      testSecret,
			sigHeader:   "X-Payload-Signature",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Webhook timestamp is too old",
		},
		{
			name:        "bad action",
			body:        s.body(func(d map[string]any) { d["action"] = "REFUND" }),
			sentAt:      time.Now(),
			secret:      testSecret,
			sigHeader:   "X-Payload-Signature",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid webhook payload: action must be one of TRANSFER, BUY, SELL",
		},
		{
			name:        "version 1",
			body:        `{"version":1,"data":{}}`,
			sentAt:      time.Now(),
			secret:      testSecret,
			sigHeader:   "X-Payload-Signature",
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid webhook payload: version 1 is no longer supported, please upgrade to webhook version 2.",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.post(tt.body, tt.sentAt, tt.secret, tt.sigHeader)
			s.Equal(tt.wantStatus, w.Code)
			resp := s.decodeError(w)
			s.False(resp.Success)
			s.Equal(tt.wantMessage, resp.Error.Display)
		})
	}
	s.Empty(s.pubSub.GetMessages(s.cfg.Webhook.Outbound.Topic))
}

func (s *RouterSuite) TestFieldViolationDetails() {
	w := s.post(s.body(func(d map[string]any) { d["receiver"] = "0x123" }), time.Now(), testSecret, "X-Payload-Signature")
	s.Require().Equal(http.StatusBadRequest, w.Code)

	resp := s.decodeError(w)
	s.Equal("Invalid webhook payload: receiver must be a valid hex address", resp.Error.Display)
	s.Equal("receiver", resp.Error.Details["field"])
	s.Equal("a valid hex address", resp.Error.Details["constraint"])
}

func (s *RouterSuite) TestHealth() {
	for _, path := range []string{"/health", "/v1/health"} {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"status":"ok"}`, w.Body.String())
	}
}
