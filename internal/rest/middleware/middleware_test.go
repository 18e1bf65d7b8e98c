package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexprice/payhook/internal/config"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ierr.ErrorResponse {
	t.Helper()
	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name:        "unauthorized",
			err:         ierr.NewError("Invalid webhook signature").WithHint("Invalid webhook signature").Mark(ierr.ErrUnauthorized),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid webhook signature",
		},
		{
			name: "validation with details",
			err: ierr.NewError("bad field").
				WithHint("Invalid webhook payload: action must be one of TRANSFER, BUY, SELL").
				WithReportableDetails(map[string]any{"field": "action"}).
				Mark(ierr.ErrValidation),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid webhook payload: action must be one of TRANSFER, BUY, SELL",
			wantDetails: map[string]any{"field": "action"},
		},
		{
			name:        "unknown",
			err:         assert.AnError,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Error.Display)
			assert.Equal(t, tt.wantDetails, resp.Error.Details)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware)
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = types.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(types.HeaderRequestID, "req_123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req_123", seen)
	assert.Equal(t, "req_123", w.Header().Get(types.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req_123", seen)
	assert.Equal(t, seen, w.Header().Get(types.HeaderRequestID))
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Inbound.RateLimit = 0.001
	cfg.Webhook.Inbound.RateBurst = 2

	r := gin.New()
	r.Use(ErrorHandler(), RateLimitMiddleware(cfg))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Inbound.RateLimit = 0

	r := gin.New()
	r.Use(ErrorHandler(), RateLimitMiddleware(cfg))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
