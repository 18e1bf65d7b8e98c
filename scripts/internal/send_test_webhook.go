package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/security"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"golang.org/x/time/rate"
)

const (
	defaultWebhookURL = "http://localhost:8080/v1/webhooks/payments"
	defaultCount      = 10
	defaultRPS        = 5
)

// TestWebhookSender signs and posts sample deliveries the way the payment service does
type TestWebhookSender struct {
	url     string
	secret  string
	action  types.PaymentAction
	status  types.PaymentWebhookStatus
	client  httpclient.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// SampleDelivery returns a valid version 2 body for transaction index i
func SampleDelivery(i int, action types.PaymentAction, status types.PaymentWebhookStatus) ([]byte, error) {
	return json.Marshal(map[string]any{
		"version": 2,
		"data": map[string]any{
			"transactionId":         fmt.Sprintf("tx_test_%d", i),
			"paymentId":             types.GenerateUUIDWithPrefix("pay"),
			"paymentLinkId":         "plink_test",
			"clientId":              "client_test",
			"action":                string(action),
			"status":                string(status),
			"originToken":           "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"originAmount":          "1000000",
			"destinationToken":      "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
			"destinationAmount":     "350000000000000",
			"sender":                "0x2a4f24F935Eb178e3e7BA9B53A5Ee6d8407C0709",
			"receiver":              "0x0c0b9a5e0a4E1a5b9B0A3D3c6C1c2C1d3E4f5a6B",
			"type":                  "onchain",
			"transactions":          []any{},
			"developerFeeBps":       0,
			"developerFeeRecipient": "0x0000000000000000000000000000000000000000",
			"purchaseData":          map[string]any{"source": "payhook-scripts"},
		},
	})
}

// send posts delivery i and returns the receiver's status code
func (s *TestWebhookSender) send(ctx context.Context, i int) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	body, err := SampleDelivery(i, s.action, s.status)
	if err != nil {
		return 0, err
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	resp, err := s.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    s.url,
		Headers: map[string]string{
			parser.SignatureHeaders[0]: parser.Sign(string(body), ts, s.secret),
			parser.TimestampHeaders[0]: ts,
		},
		Body: body,
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return httpErr.StatusCode, fmt.Errorf("%d: %s", httpErr.StatusCode, string(httpErr.Response))
		}
		return 0, err
	}
	return resp.StatusCode, nil
}

// SendTestWebhooks sends WEBHOOK_COUNT signed deliveries to WEBHOOK_URL at
// WEBHOOK_RPS requests per second
func SendTestWebhooks() error {
	cfg, err := config.NewConfig()
	if err != nil {
		cfg = config.GetDefaultConfig()
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	secret, err := security.ResolveWebhookSecret(cfg, log)
	if err != nil {
		return err
	}

	count := envInt("WEBHOOK_COUNT", defaultCount)
	rps := envInt("WEBHOOK_RPS", defaultRPS)

	sender := &TestWebhookSender{
		url:     envString("WEBHOOK_URL", defaultWebhookURL),
		secret:  string(secret),
		action:  types.PaymentAction(envString("WEBHOOK_ACTION", string(types.PaymentActionBuy))),
		status:  types.PaymentWebhookStatus(envString("WEBHOOK_STATUS", string(types.PaymentWebhookStatusCompleted))),
		client:  httpclient.NewClientWithTimeout(10 * time.Second),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  log,
	}

	log.Infof("Sending %d webhooks to %s with rate limit of %d req/s", count, sender.url, rps)

	ctx := context.Background()
	start := time.Now()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successCount int
		errorCount   int
	)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := sender.send(ctx, i)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errorCount++
				log.Errorw("webhook rejected", "index", i, "status_code", code, "error", err)
				return
			}
			successCount++
		}(i)
	}
	wg.Wait()

	log.Infof("Done in %v: %d accepted, %d failed", time.Since(start).Round(time.Millisecond), successCount, errorCount)
	if errorCount > 0 {
		return fmt.Errorf("%d of %d webhooks failed", errorCount, count)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
