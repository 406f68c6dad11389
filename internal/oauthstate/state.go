// Package oauthstate issues and validates the single-use CSRF nonce that
// binds an authorization redirect to its callback.
//
// The nonce travels twice: as the state query parameter sent to the
// provider and in a short-lived cookie scoped to the auth subtree. No
// server-side record is kept; a callback is accepted only when both copies
// are present and equal.
package oauthstate

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dgellow/decap-auth/internal/cookie"
	"github.com/dgellow/decap-auth/internal/crypto"
)

// MaxTTL is the longest lifetime a state cookie may have.
const MaxTTL = 300 * time.Second

var (
	// ErrStateMissing means the callback arrived without a state cookie,
	// e.g. in another browser, or after expiry.
	ErrStateMissing = errors.New("oauth state cookie missing")
	// ErrStateMismatch means the provider returned a state that does not
	// match the cookie.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// Issuer generates state nonces and their cookies.
type Issuer struct {
	path string
	ttl  time.Duration
}

// NewIssuer creates an Issuer whose cookies are scoped to path.
// A zero or oversized ttl is clamped to MaxTTL.
func NewIssuer(path string, ttl time.Duration) Issuer {
	if path == "" {
		path = "/"
	}
	if ttl <= 0 || ttl > MaxTTL {
		ttl = MaxTTL
	}
	return Issuer{path: path, ttl: ttl}
}

// Path returns the cookie path.
func (i Issuer) Path() string {
	return i.path
}

// TTL returns the cookie lifetime.
func (i Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue generates a fresh nonce and the cookie that carries it.
// The cookie must be attached to the same response as the redirect that
// sends the nonce to the provider.
func (i Issuer) Issue() (string, *http.Cookie, error) {
	nonce, err := crypto.GenerateStateNonce()
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue state: %w", err)
	}
	return nonce, cookie.NewState(nonce, i.path, i.ttl), nil
}

// Validate checks the nonce returned by the provider against the cookie
// value. Any failure is terminal.
func (i Issuer) Validate(cookieValue, returned string) error {
	if cookieValue == "" {
		return ErrStateMissing
	}
	if !crypto.EqualNonEmpty(cookieValue, returned) {
		return ErrStateMismatch
	}
	return nil
}

// ValidateRequest validates the state query parameter of a callback request
// against its state cookie.
func (i Issuer) ValidateRequest(r *http.Request) error {
	return i.Validate(cookie.GetState(r), r.URL.Query().Get("state"))
}
