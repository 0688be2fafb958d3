package handler_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/handler"
)

func signBody(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySlackRequest(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	body := []byte("payload=%7B%22type%22%3A%22view_submission%22%7D")
	now := time.Date(2024, 12, 10, 10, 0, 0, 0, time.UTC)
	timestamp := fmt.Sprintf("%d", now.Unix())

	t.Run("valid signature passes", func(t *testing.T) {
		sig := signBody(secret, timestamp, body)
		err := handler.VerifySlackRequest(secret, body, sig, timestamp, now)
		assert.NoError(t, err)
	})

	t.Run("tampered body fails", func(t *testing.T) {
		sig := signBody(secret, timestamp, body)
		tampered := append([]byte{}, body...)
		tampered[0] = 'q'
		err := handler.VerifySlackRequest(secret, tampered, sig, timestamp, now)
		require.Error(t, err)
		var authErr *entity.AuthenticationError
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		sig := signBody("another-secret", timestamp, body)
		err := handler.VerifySlackRequest(secret, body, sig, timestamp, now)
		assert.Error(t, err)
	})

	t.Run("stale timestamp fails even with correct signature", func(t *testing.T) {
		stale := fmt.Sprintf("%d", now.Add(-6*time.Minute).Unix())
		sig := signBody(secret, stale, body)
		err := handler.VerifySlackRequest(secret, body, sig, stale, now)
		require.Error(t, err)
		var authErr *entity.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Contains(t, authErr.Reason, "timestamp")
	})

	t.Run("future timestamp outside tolerance fails", func(t *testing.T) {
		future := fmt.Sprintf("%d", now.Add(6*time.Minute).Unix())
		sig := signBody(secret, future, body)
		err := handler.VerifySlackRequest(secret, body, sig, future, now)
		assert.Error(t, err)
	})

	t.Run("missing signature header fails", func(t *testing.T) {
		err := handler.VerifySlackRequest(secret, body, "", timestamp, now)
		assert.Error(t, err)
	})

	t.Run("missing timestamp header fails", func(t *testing.T) {
		sig := signBody(secret, timestamp, body)
		err := handler.VerifySlackRequest(secret, body, sig, "", now)
		assert.Error(t, err)
	})

	t.Run("malformed timestamp fails", func(t *testing.T) {
		sig := signBody(secret, timestamp, body)
		err := handler.VerifySlackRequest(secret, body, sig, "not-a-number", now)
		assert.Error(t, err)
	})
}
