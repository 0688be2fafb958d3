package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/outageops/sobot/domain/entity"
)

const (
	signatureVersion = "v0"
	// Slack signs requests with a timestamp; anything older than this
	// is treated as a replay.
	signatureMaxAge = 5 * time.Minute
)

// VerifySlackRequest checks the signature Slack computes over
// "v0:{timestamp}:{body}". It is a pure function, the clock is passed
// in so freshness is testable.
func VerifySlackRequest(signingSecret string, body []byte, signature, timestamp string, now time.Time) error {
	if signature == "" {
		return &entity.AuthenticationError{Reason: "missing signature header"}
	}
	if timestamp == "" {
		return &entity.AuthenticationError{Reason: "missing timestamp header"}
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return &entity.AuthenticationError{Reason: "malformed timestamp header"}
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureMaxAge || age < -signatureMaxAge {
		return &entity.AuthenticationError{Reason: "timestamp outside tolerance"}
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return &entity.AuthenticationError{Reason: "signature mismatch"}
	}
	return nil
}
