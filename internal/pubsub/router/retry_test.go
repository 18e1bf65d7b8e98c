package router

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"service unavailable", httpclient.NewError(http.StatusServiceUnavailable, nil), true},
		{"too many requests", httpclient.NewError(http.StatusTooManyRequests, nil), true},
		{"bad request", httpclient.NewError(http.StatusBadRequest, nil), false},
		{"wrapped gone", errors.Wrap(httpclient.NewError(http.StatusGone, nil), "deliver"), false},
		{"network timeout", errors.Wrap(timeoutErr{}, "post"), true},
		{"validation", ierr.NewError("bad event").Mark(ierr.ErrValidation), false},
		{"not found", ierr.NewError("no subscriber").Mark(ierr.ErrNotFound), false},
		{"connection refused", ierr.WithError(errors.New("connection refused")).Mark(ierr.ErrHTTPClient), true},
		{"unknown", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(log, tt.err))
		})
	}
}
