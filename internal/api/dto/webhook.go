package dto

import "github.com/flexprice/payhook/internal/webhook"

// PaymentWebhookResponse acknowledges an accepted delivery. Duplicate
// deliveries are acknowledged with the id of the first event.
type PaymentWebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventID   string `json:"event_id" example:"pwh_01JABCDEFGHJKMNPQRSTVWXYZ0"`
	EventName string `json:"event_name" example:"payment.buy.completed"`
	Duplicate bool   `json:"duplicate" example:"false"`
}

// NewPaymentWebhookResponse converts an accept result into the response body
func NewPaymentWebhookResponse(result *webhook.AcceptResult) *PaymentWebhookResponse {
	return &PaymentWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventName: result.EventName,
		Duplicate: result.Duplicate,
	}
}
