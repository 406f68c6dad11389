package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// rawEnv holds raw env values for environment-only configuration.
type rawEnv struct {
	Addr           string        `env:"DECAP_AUTH_ADDR"            envDefault:":8080"`
	BasePath       string        `env:"DECAP_AUTH_BASE_PATH"       envDefault:"/api/decap-auth"`
	TrustForwarded bool          `env:"DECAP_AUTH_TRUST_FORWARDED"`
	RedirectBase   string        `env:"OAUTH_REDIRECT_BASE"`
	ClientID       string        `env:"GITHUB_CLIENT_ID"`
	ClientSecret   string        `env:"GITHUB_CLIENT_SECRET"`
	Scope          string        `env:"OAUTH_SCOPE"                envDefault:"public_repo"`
	AuthorizeURL   string        `env:"GITHUB_AUTHORIZE_URL"`
	TokenURL       string        `env:"GITHUB_TOKEN_URL"`
	StateTTL       time.Duration `env:"DECAP_AUTH_STATE_TTL"       envDefault:"300s"`
	AdminPath      string        `env:"DECAP_AUTH_ADMIN_PATH"      envDefault:"/admin/"`
	EditorConfig   string        `env:"DECAP_AUTH_EDITOR_CONFIG"   envDefault:"/admin/config.yml"`
	EditorScript   string        `env:"DECAP_AUTH_EDITOR_SCRIPT"`
	PollInterval   time.Duration `env:"DECAP_AUTH_POLL_INTERVAL"   envDefault:"50ms"`
}

// LoadFromEnv builds the configuration from environment variables alone.
// Missing client credentials are not an error here.
func LoadFromEnv() (Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:           raw.Addr,
			RedirectBase:   raw.RedirectBase,
			BasePath:       raw.BasePath,
			TrustForwarded: raw.TrustForwarded,
		},
		OAuth: OAuthConfig{
			Provider:     "github",
			ClientID:     raw.ClientID,
			ClientSecret: Secret(raw.ClientSecret),
			Scope:        raw.Scope,
			AuthorizeURL: raw.AuthorizeURL,
			TokenURL:     raw.TokenURL,
			StateTTL:     raw.StateTTL,
		},
		Admin: AdminConfig{
			Path:         raw.AdminPath,
			EditorConfig: raw.EditorConfig,
			EditorScript: raw.EditorScript,
			PollInterval: raw.PollInterval,
		},
	}
	cfg.ApplyDefaults()

	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
