package parser

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Headers maps lower-cased header names to their values
type Headers map[string]string

// Accepted names per logical header, first match wins
var (
	SignatureHeaders = []string{"x-payload-signature", "x-pay-signature"}
	TimestampHeaders = []string{"x-timestamp", "x-pay-timestamp"}
)

// HeadersFromHTTP lower-cases the names of h and keeps the first value of each
func HeadersFromHTTP(h http.Header) Headers {
	headers := make(Headers, len(h))
	for name, values := range h {
		if len(values) == 0 {
			continue
		}
		headers[strings.ToLower(name)] = values[0]
	}
	return headers
}

// Lookup returns the value of the first alias present with a non-empty value
func (h Headers) Lookup(aliases []string) (string, bool) {
	name, ok := lo.Find(aliases, func(name string) bool {
		return h[name] != ""
	})
	if !ok {
		return "", false
	}
	return h[name], true
}

func (h Headers) signatureAndTimestamp() (signature string, timestamp string, err error) {
	signature, hasSignature := h.Lookup(SignatureHeaders)
	timestamp, hasTimestamp := h.Lookup(TimestampHeaders)
	if !hasSignature || !hasTimestamp {
		return "", "", errMissingHeaders()
	}
	return signature, timestamp, nil
}
