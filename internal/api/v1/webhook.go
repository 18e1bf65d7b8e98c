package v1

import (
	"io"
	"net/http"

	"github.com/flexprice/payhook/internal/api/dto"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/webhook"
	"github.com/flexprice/payhook/internal/webhook/parser"
	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler receives deliveries from the payment service
type PaymentWebhookHandler struct {
	service *webhook.WebhookService
	logger  *logger.Logger
}

// NewPaymentWebhookHandler creates a new payment webhook handler
func NewPaymentWebhookHandler(service *webhook.WebhookService, logger *logger.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Receive payment webhook
// @Description Verifies the HMAC signature and freshness of a payment webhook and queues it for delivery to internal subscribers
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param x-payload-signature header string true "hex HMAC-SHA256 of timestamp.body (alias x-pay-signature)"
// @Param x-timestamp header string true "unix seconds (alias x-pay-timestamp)"
// @Param payload body object true "Version 2 payment webhook"
// @Success 200 {object} dto.PaymentWebhookResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 429 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /webhooks/payments [post]
func (h *PaymentWebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	// the signature covers the exact bytes, never re-encode the body
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	result, err := h.service.Accept(c.Request.Context(), string(body), parser.HeadersFromHTTP(c.Request.Header))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaymentWebhookResponse(result))
}
