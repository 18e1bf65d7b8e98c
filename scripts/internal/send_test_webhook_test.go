package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSampleDeliveryParses(t *testing.T) {
	for _, action := range types.PaymentActions {
		for _, status := range types.PaymentWebhookStatuses {
			body, err := SampleDelivery(1, action, status)
			require.NoError(t, err)

			payload, err := parser.Validate(decode(t, body))
			require.NoError(t, err)
			assert.Equal(t, action, payload.Data.Action)
			assert.Equal(t, status, payload.Data.Status)
		}
	}
}

func TestTestWebhookSender_Send(t *testing.T) {
	const secret = "script-secret"
	var parseErr error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, parseErr = parser.Parse(string(body), parser.HeadersFromHTTP(r.Header), secret)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := &TestWebhookSender{
		url:     server.URL,
		secret:  secret,
		action:  types.PaymentActionSell,
		status:  types.PaymentWebhookStatusPending,
		client:  httpclient.NewClientWithTimeout(5 * time.Second),
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  logger.NewNoopLogger(),
	}

	code, err := sender.send(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.NoError(t, parseErr)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("WEBHOOK_COUNT", "3")
	t.Setenv("WEBHOOK_RPS", "-1")
	assert.Equal(t, 3, envInt("WEBHOOK_COUNT", 10))
	assert.Equal(t, 5, envInt("WEBHOOK_RPS", 5))
	assert.Equal(t, "fallback", envString("WEBHOOK_UNSET_KEY", "fallback"))
}

func decode(t *testing.T, body []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}
