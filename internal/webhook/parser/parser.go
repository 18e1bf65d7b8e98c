// Package parser authenticates and decodes payment webhook deliveries.
//
// A delivery is accepted only if its signature matches the raw body, its
// timestamp is within the tolerance window and its JSON body matches the
// versioned payload schema, checked in that order.
package parser

import (
	"encoding/json"
	"time"
)

type options struct {
	tolerance time.Duration
	now       func() time.Time
}

// Option configures Parse
type Option func(*options)

// WithTolerance overrides the maximum accepted age of a delivery
func WithTolerance(tolerance time.Duration) Option {
	return func(o *options) {
		o.tolerance = tolerance
	}
}

// WithClock overrides the wall clock used for the freshness check
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse verifies a delivery and returns its payload. rawBody must be the exact
// bytes received, the signature is computed over them.
func Parse(rawBody string, headers Headers, secret string, opts ...Option) (*Payload, error) {
	o := newOptions(opts)

	signature, timestamp, err := headers.signatureAndTimestamp()
	if err != nil {
		return nil, err
	}

	if err := VerifySignature(rawBody, timestamp, secret, signature); err != nil {
		return nil, err
	}

	if err := CheckFreshness(timestamp, o.tolerance, o.now()); err != nil {
		return nil, err
	}

	// numbers outside the float64 range (1e400) fail to decode and are
	// reported as malformed JSON
	var value any
	if err := json.Unmarshal([]byte(rawBody), &value); err != nil {
		return nil, invalidPayload("not valid JSON", ErrMalformedJSON)
	}

	return Validate(value)
}

// Parser holds the shared secret and options for repeated calls to Parse
type Parser struct {
	secret string
	opts   []Option
}

// NewParser creates a Parser for deliveries signed with secret
func NewParser(secret string, opts ...Option) *Parser {
	return &Parser{
		secret: secret,
		opts:   opts,
	}
}

// Parse verifies a delivery with the parser's secret and options
func (p *Parser) Parse(rawBody string, headers Headers) (*Payload, error) {
	return Parse(rawBody, headers, p.secret, p.opts...)
}
