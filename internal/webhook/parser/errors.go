package parser

import (
	"strconv"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/payhook/internal/errors"
)

// Sentinels for every way a delivery can be rejected. Errors returned by this
// package are marked with exactly one of them, check with errors.Is.
var (
	ErrMissingHeaders      = errors.New("webhook: missing headers")
	ErrInvalidSignature    = errors.New("webhook: invalid signature")
	ErrExpiredTimestamp    = errors.New("webhook: expired timestamp")
	ErrMalformedJSON       = errors.New("webhook: malformed json")
	ErrNotAnObject         = errors.New("webhook: payload not an object")
	ErrMissingVersion      = errors.New("webhook: missing version")
	ErrUnsupportedVersion1 = errors.New("webhook: version 1 unsupported")
	ErrMissingDataV1       = errors.New("webhook: version 1 missing data")
	ErrMissingDataV2       = errors.New("webhook: version 2 missing data")
	ErrFieldViolation      = errors.New("webhook: field violation")
	ErrUnsupportedVersion  = errors.New("webhook: unsupported version")
)

const invalidPayloadPrefix = "Invalid webhook payload: "

const (
	constraintString  = "a string"
	constraintAddress = "a valid hex address"
	constraintArray   = "an array"
	constraintNumber  = "a number"
	constraintObject  = "an object"
)

func rejected(msg string, sentinel, class error) error {
	return ierr.NewError(msg).
		WithHint(msg).
		Mark(sentinel, class)
}

func errMissingHeaders() error {
	return rejected("Missing required webhook headers: signature or timestamp", ErrMissingHeaders, ierr.ErrValidation)
}

func errInvalidSignature() error {
	return rejected("Invalid webhook signature", ErrInvalidSignature, ierr.ErrUnauthorized)
}

func errExpiredTimestamp() error {
	return rejected("Webhook timestamp is too old", ErrExpiredTimestamp, ierr.ErrUnauthorized)
}

func invalidPayload(reason string, sentinel error) error {
	return rejected(invalidPayloadPrefix+reason, sentinel, ierr.ErrValidation)
}

func errUnsupportedVersion(version float64) error {
	return invalidPayload("unsupported version "+strconv.FormatFloat(version, 'f', -1, 64), ErrUnsupportedVersion)
}

func errFieldViolation(field, constraint string) error {
	msg := invalidPayloadPrefix + field + " must be " + constraint
	return ierr.NewError(msg).
		WithHint(msg).
		WithReportableDetails(map[string]any{
			"field":      field,
			"constraint": constraint,
		}).
		Mark(ErrFieldViolation, ierr.ErrValidation)
}
