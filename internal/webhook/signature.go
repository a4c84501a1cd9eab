package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"net/http"
)

var (
	// ErrSignature covers a missing recognized header, an unconfigured
	// signature key, and a signature that matches no scheme.
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrMalformedEvent means the signature checked out but the body is not a
	// parseable event envelope. Callers acknowledge it instead of retrying.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// scheme is one verification strategy: a signature header and the HMAC hash
// it carries. The provider migrated from SHA-1 to SHA-256 signatures, so both
// are accepted during the transition.
type scheme struct {
	name    string
	header  string
	newHash func() hash.Hash
}

// Verifier validates raw webhook bodies against the shared signature key.
//
// The provider signs base64(HMAC(key, notificationURL + body)). Some proxy
// configurations strip the URL prefix, so each scheme falls back to HMAC over
// the body alone before failing.
type Verifier struct {
	key             []byte
	notificationURL string
	schemes         []scheme
}

// NewVerifier builds a verifier for the configured signature key. The header
// names are provider configuration, not part of the contract; either may be
// empty to disable that scheme.
func NewVerifier(key, notificationURL, sha256Header, sha1Header string) *Verifier {
	v := &Verifier{
		key:             []byte(key),
		notificationURL: notificationURL,
	}
	if sha256Header != "" {
		v.schemes = append(v.schemes, scheme{name: "hmac-sha256", header: sha256Header, newHash: sha256.New})
	}
	if sha1Header != "" {
		v.schemes = append(v.schemes, scheme{name: "hmac-sha1", header: sha1Header, newHash: sha1.New})
	}
	return v
}

// Verify checks the raw body against the signature headers and, on success,
// parses it into an Event. Signature failures and parse failures are distinct
// error kinds; both are acknowledged upstream, never retried.
func (v *Verifier) Verify(rawBody []byte, headers http.Header) (*Event, error) {
	if len(v.key) == 0 {
		return nil, fmt.Errorf("%w: signature key not configured", ErrSignature)
	}

	seen := false
	for _, s := range v.schemes {
		sig := headers.Get(s.header)
		if sig == "" {
			continue
		}
		seen = true

		prefixed := make([]byte, 0, len(v.notificationURL)+len(rawBody))
		prefixed = append(prefixed, v.notificationURL...)
		prefixed = append(prefixed, rawBody...)

		if v.matches(s, prefixed, sig) || v.matches(s, rawBody, sig) {
			return parseEvent(rawBody)
		}
	}

	if !seen {
		return nil, fmt.Errorf("%w: no recognized signature header present", ErrSignature)
	}
	return nil, fmt.Errorf("%w: computed signatures do not match", ErrSignature)
}

func (v *Verifier) matches(s scheme, message []byte, signature string) bool {
	mac := hmac.New(s.newHash, v.key)
	mac.Write(message)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// hmac.Equal for constant-time comparison.
	return hmac.Equal([]byte(expected), []byte(signature))
}

func parseEvent(rawBody []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return &ev, nil
}
