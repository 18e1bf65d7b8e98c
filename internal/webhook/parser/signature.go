package parser

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns hex(HMAC_SHA256(secret, timestamp + "." + rawBody)) in lower case
func Sign(rawBody, timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write([]byte(rawBody))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks provided against the signature of rawBody at timestamp
func VerifySignature(rawBody, timestamp, secret, provided string) error {
	expected := Sign(rawBody, timestamp, secret)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return errInvalidSignature()
	}
	return nil
}
