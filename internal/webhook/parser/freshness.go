package parser

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum age of a delivery accepted by Parse
const DefaultTolerance = 300 * time.Second

// CheckFreshness rejects timestamps (seconds since epoch) older than tolerance.
// An age equal to the tolerance passes and timestamps in the future are not
// rejected. A timestamp that is not an integer is treated as stale.
func CheckFreshness(timestamp string, tolerance time.Duration, now time.Time) error {
	sent, err := strconv.ParseInt(strings.TrimSpace(timestamp), 10, 64)
	if err != nil {
		// fail closed: fractional ("1760000000.5") or suffixed ("1760000000abc")
		// values are stale, never ageless
		return errExpiredTimestamp()
	}

	age := now.Unix() - sent
	if age > int64(tolerance/time.Second) {
		return errExpiredTimestamp()
	}
	return nil
}
