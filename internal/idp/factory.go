package idp

import (
	"fmt"

	"github.com/dgellow/decap-auth/internal/config"
)

// NewProvider creates a Provider based on the OAuth configuration.
func NewProvider(cfg config.OAuthConfig) (Provider, error) {
	switch cfg.Provider {
	case "github", "":
		return NewGitHubProvider(GitHubConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: string(cfg.ClientSecret),
			Scope:        cfg.Scope,
			AuthURL:      cfg.AuthorizeURL,
			TokenURL:     cfg.TokenURL,
		}), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}
