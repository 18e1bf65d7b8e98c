package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/flexprice/payhook/internal/types"
	"github.com/samber/lo"
)

var hexAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// versionValidator validates the envelope of one payload version
type versionValidator func(envelope map[string]any) (*Payload, error)

// fieldRule checks one field of a data object
type fieldRule func(data map[string]any) error

var versionValidators = map[int]versionValidator{
	1: validateV1,
	2: validateV2,
}

// dataV2Rules run in order, the first violation is returned
var dataV2Rules = []fieldRule{
	stringField("transactionId"),
	stringField("paymentId"),
	optionalStringField("paymentLinkId"),
	stringField("clientId"),
	enumField("action", types.PaymentActions),
	enumField("status", types.PaymentWebhookStatuses),
	stringField("originToken"),
	stringField("originAmount"),
	addressField("destinationToken"),
	stringField("destinationAmount"),
	addressField("sender"),
	addressField("receiver"),
	stringField("type"),
	arrayField("transactions"),
	numberField("developerFeeBps"),
	addressField("developerFeeRecipient"),
	objectField("purchaseData"),
}

// Validate checks a decoded JSON value against the versioned payload schema
// and returns the typed payload
func Validate(value any) (*Payload, error) {
	envelope, ok := value.(map[string]any)
	if !ok {
		return nil, invalidPayload("must be an object", ErrNotAnObject)
	}

	version, ok := envelope["version"].(float64)
	if !ok {
		return nil, invalidPayload("version must be a number", ErrMissingVersion)
	}

	if version != math.Trunc(version) {
		return nil, errUnsupportedVersion(version)
	}
	validate, ok := versionValidators[int(version)]
	if !ok {
		return nil, errUnsupportedVersion(version)
	}
	return validate(envelope)
}

func validateV1(envelope map[string]any) (*Payload, error) {
	if _, ok := envelope["data"].(map[string]any); !ok {
		return nil, invalidPayload("version 1 must have a data object", ErrMissingDataV1)
	}
	return nil, invalidPayload("version 1 is no longer supported, please upgrade to webhook version 2.", ErrUnsupportedVersion1)
}

func validateV2(envelope map[string]any) (*Payload, error) {
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		return nil, invalidPayload("version 2 must have a data object", ErrMissingDataV2)
	}

	for _, rule := range dataV2Rules {
		if err := rule(data); err != nil {
			return nil, err
		}
	}

	payload := &Payload{
		Version: 2,
		Data: DataV2{
			TransactionID:         data["transactionId"].(string),
			PaymentID:             data["paymentId"].(string),
			ClientID:              data["clientId"].(string),
			Action:                types.PaymentAction(data["action"].(string)),
			Status:                types.PaymentWebhookStatus(data["status"].(string)),
			OriginToken:           data["originToken"].(string),
			OriginAmount:          data["originAmount"].(string),
			DestinationToken:      data["destinationToken"].(string),
			DestinationAmount:     data["destinationAmount"].(string),
			Sender:                data["sender"].(string),
			Receiver:              data["receiver"].(string),
			Type:                  data["type"].(string),
			Transactions:          data["transactions"].([]any),
			DeveloperFeeBps:       data["developerFeeBps"].(float64),
			DeveloperFeeRecipient: data["developerFeeRecipient"].(string),
			PurchaseData:          data["purchaseData"].(map[string]any),
		},
	}
	if linkID, ok := data["paymentLinkId"].(string); ok {
		payload.Data.PaymentLinkID = &linkID
	}
	return payload, nil
}

func stringField(name string) fieldRule {
	return func(data map[string]any) error {
		if _, ok := data[name].(string); !ok {
			return errFieldViolation(name, constraintString)
		}
		return nil
	}
}

func optionalStringField(name string) fieldRule {
	return func(data map[string]any) error {
		value, present := data[name]
		if !present {
			return nil
		}
		if _, ok := value.(string); !ok {
			return errFieldViolation(name, constraintString)
		}
		return nil
	}
}

func enumField[T ~string](name string, allowed []T) fieldRule {
	constraint := "one of " + strings.Join(lo.Map(allowed, func(v T, _ int) string {
		return string(v)
	}), ", ")

	return func(data map[string]any) error {
		value, ok := data[name].(string)
		if !ok || !lo.Contains(allowed, T(value)) {
			return errFieldViolation(name, constraint)
		}
		return nil
	}
}

// addressField requires a string before checking its format
func addressField(name string) fieldRule {
	return func(data map[string]any) error {
		value, ok := data[name].(string)
		if !ok {
			return errFieldViolation(name, constraintString)
		}
		if !hexAddress.MatchString(value) {
			return errFieldViolation(name, constraintAddress)
		}
		return nil
	}
}

func arrayField(name string) fieldRule {
	return func(data map[string]any) error {
		if _, ok := data[name].([]any); !ok {
			return errFieldViolation(name, constraintArray)
		}
		return nil
	}
}

func numberField(name string) fieldRule {
	return func(data map[string]any) error {
		if _, ok := data[name].(float64); !ok {
			return errFieldViolation(name, constraintNumber)
		}
		return nil
	}
}

// objectField rejects null, arrays and primitives
func objectField(name string) fieldRule {
	return func(data map[string]any) error {
		if _, ok := data[name].(map[string]any); !ok {
			return errFieldViolation(name, constraintObject)
		}
		return nil
	}
}
