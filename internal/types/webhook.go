package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAction is the kind of movement a payment webhook reports
type PaymentAction string

const (
	PaymentActionTransfer PaymentAction = "TRANSFER"
	PaymentActionBuy      PaymentAction = "BUY"
	PaymentActionSell     PaymentAction = "SELL"
)

// PaymentActions lists the accepted actions in their documented order
var PaymentActions = []PaymentAction{
	PaymentActionTransfer,
	PaymentActionBuy,
	PaymentActionSell,
}

// PaymentWebhookStatus is the status of the payment at delivery time
type PaymentWebhookStatus string

const (
	PaymentWebhookStatusPending   PaymentWebhookStatus = "PENDING"
	PaymentWebhookStatusFailed    PaymentWebhookStatus = "FAILED"
	PaymentWebhookStatusCompleted PaymentWebhookStatus = "COMPLETED"
)

// PaymentWebhookStatuses lists the accepted statuses in their documented order
var PaymentWebhookStatuses = []PaymentWebhookStatus{
	PaymentWebhookStatusPending,
	PaymentWebhookStatusFailed,
	PaymentWebhookStatusCompleted,
}

// PaymentWebhookEvent is the internal event published for every accepted delivery
type PaymentWebhookEvent struct {
	ID                string               `json:"id" validate:"required"`
	EventName         string               `json:"event_name" validate:"required"`
	ClientID          string               `json:"client_id" validate:"required"`
	TransactionID     string               `json:"transaction_id" validate:"required"`
	PaymentID         string               `json:"payment_id" validate:"required"`
	Action            PaymentAction        `json:"action" validate:"required"`
	Status            PaymentWebhookStatus `json:"status" validate:"required"`
	Receiver          string               `json:"receiver" validate:"required,eth_addr"`
	OriginAmount      decimal.NullDecimal  `json:"origin_amount"`
	DestinationAmount decimal.NullDecimal  `json:"destination_amount"`
	RequestID         string               `json:"request_id,omitempty"`
	ReceivedAt        time.Time            `json:"received_at" validate:"required"`
	Payload           json.RawMessage      `json:"payload" validate:"required"`
}

// PaymentWebhookEventName returns the event name for an action/status pair,
// ex payment.transfer.completed
func PaymentWebhookEventName(action PaymentAction, status PaymentWebhookStatus) string {
	return fmt.Sprintf("payment.%s.%s",
		strings.ToLower(string(action)),
		strings.ToLower(string(status)),
	)
}
