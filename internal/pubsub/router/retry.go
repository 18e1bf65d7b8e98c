package router

import (
	"net"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/payhook/internal/errors"
	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
)

// ShouldRetry reports whether a failed delivery should go back to the router
// for another attempt
func ShouldRetry(logger *logger.Logger, err error) bool {
	// HTTP errors
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		if httpErr.Retryable() {
			logger.Debugw("retrying due to HTTP error",
				"status_code", httpErr.StatusCode,
				"error", httpErr,
			)
			return true
		}
		logger.Debugw("non-retryable HTTP error",
			"status_code", httpErr.StatusCode,
			"error", httpErr,
		)
		return false
	}

	// Network errors
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	// Transport failures before any response
	if ierr.IsHTTPClient(err) {
		logger.Debugw("retrying due to http client failure", "error", err)
		return true
	}

	// Business logic errors (don't retry)
	if ierr.IsValidation(err) ||
		ierr.IsNotFound(err) ||
		ierr.IsPermissionDenied(err) {
		return false
	}

	// By default, retry unknown errors
	return true
}
