package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey          = "signature-key"
	testURL          = "https://api.example.com/v1/webhooks/payments"
	testSHA256Header = "x-provider-hmacsha256-signature"
	testSHA1Header   = "x-provider-signature"
)

func sign(t *testing.T, newHash func() hash.Hash, key string, message []byte) string {
	t.Helper()
	mac := hmac.New(newHash, []byte(key))
	mac.Write(message)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func eventBody() []byte {
	return []byte(`{"event_id":"evt-1","type":"payment.updated","data":{"type":"payment","id":"pay-1","object":{"payment":{"id":"pay-1","status":"COMPLETED","amount_money":{"amount":4999,"currency":"USD"}}}}}`)
}

func TestVerifySHA256OverURLAndBody(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, testKey, append([]byte(testURL), body...)))

	ev, err := v.Verify(body, headers)
	require.NoError(t, err)
	assert.Equal(t, "payment.updated", ev.Type)
	assert.Equal(t, "pay-1", ev.Data.Object.Payment.ID)
	assert.Equal(t, int64(4999), ev.Data.Object.Payment.AmountMoney.Amount)
}

func TestVerifyLegacySHA1Header(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	headers := http.Header{}
	headers.Set(testSHA1Header, sign(t, sha1.New, testKey, append([]byte(testURL), body...)))

	_, err := v.Verify(body, headers)
	require.NoError(t, err)
}

func TestVerifyBodyOnlyFallback(t *testing.T) {
	// Some proxy configurations strip the notification URL prefix.
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, testKey, body))

	_, err := v.Verify(body, headers)
	require.NoError(t, err)
}

func TestVerifyRejectsMutatedBody(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, testKey, append([]byte(testURL), body...)))

	mutated := append([]byte(nil), body...)
	mutated[len(mutated)/2] ^= 0x01

	_, err := v.Verify(mutated, headers)
	require.ErrorIs(t, err, ErrSignature)
}

func TestVerifyRejectsMutatedSignature(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	sig := sign(t, sha256.New, testKey, append([]byte(testURL), body...))
	headers := http.Header{}
	headers.Set(testSHA256Header, "A"+sig[1:])

	_, err := v.Verify(body, headers)
	require.ErrorIs(t, err, ErrSignature)
}

func TestVerifyNoRecognizedHeader(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)

	_, err := v.Verify(eventBody(), http.Header{})
	require.ErrorIs(t, err, ErrSignature)
}

func TestVerifyUnconfiguredKey(t *testing.T) {
	v := NewVerifier("", testURL, testSHA256Header, testSHA1Header)
	body := eventBody()

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, "anything", body))

	_, err := v.Verify(body, headers)
	require.ErrorIs(t, err, ErrSignature)
}

func TestVerifyMalformedEventAfterValidSignature(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := []byte(`{"not valid json`)

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, testKey, append([]byte(testURL), body...)))

	_, err := v.Verify(body, headers)
	require.ErrorIs(t, err, ErrMalformedEvent)
	require.NotErrorIs(t, err, ErrSignature)
}

func TestVerifyMissingEventType(t *testing.T) {
	v := NewVerifier(testKey, testURL, testSHA256Header, testSHA1Header)
	body := []byte(`{"event_id":"evt-2"}`)

	headers := http.Header{}
	headers.Set(testSHA256Header, sign(t, sha256.New, testKey, append([]byte(testURL), body...)))

	_, err := v.Verify(body, headers)
	require.ErrorIs(t, err, ErrMalformedEvent)
}
