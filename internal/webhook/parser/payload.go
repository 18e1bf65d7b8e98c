package parser

import "github.com/flexprice/payhook/internal/types"

// Payload is a verified delivery. Only version 2 is ever returned.
type Payload struct {
	Version int    `json:"version"`
	Data    DataV2 `json:"data"`
}

// DataV2 is the body of a version 2 delivery
type DataV2 struct {
	TransactionID         string                     `json:"transactionId"`
	PaymentID             string                     `json:"paymentId"`
	PaymentLinkID         *string                    `json:"paymentLinkId,omitempty"`
	ClientID              string                     `json:"clientId"`
	Action                types.PaymentAction        `json:"action"`
	Status                types.PaymentWebhookStatus `json:"status"`
	OriginToken           string                     `json:"originToken"`
	OriginAmount          string                     `json:"originAmount"`
	DestinationToken      string                     `json:"destinationToken"`
	DestinationAmount     string                     `json:"destinationAmount"`
	Sender                string                     `json:"sender"`
	Receiver              string                     `json:"receiver"`
	Type                  string                     `json:"type"`
	Transactions          []any                      `json:"transactions"`
	DeveloperFeeBps       float64                    `json:"developerFeeBps"`
	DeveloperFeeRecipient string                     `json:"developerFeeRecipient"`
	PurchaseData          map[string]any             `json:"purchaseData"`
}
