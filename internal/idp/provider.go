package idp

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// Configuration errors. They are not user-actionable.
var (
	ErrMissingClientID     = errors.New("missing OAuth client ID")
	ErrMissingClientSecret = errors.New("missing OAuth client secret")
)

// Provider abstracts the identity provider's authorization-code endpoints.
type Provider interface {
	// Type returns the provider identifier used in delivery messages (e.g. "github").
	Type() string

	// CheckClient reports a configuration error when the client ID (and,
	// if withSecret, the client secret) is missing.
	CheckClient(withSecret bool) error

	// AuthURL builds the authorization URL for the given state and callback.
	AuthURL(state, redirectURI string) (string, error)

	// ExchangeCode trades an authorization code for a token with a single
	// request. Failures are returned as *ExchangeError.
	ExchangeCode(ctx context.Context, code, state, redirectURI string) (*oauth2.Token, error)
}
