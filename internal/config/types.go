package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrEnvNotSet is returned when a {"$env": ...} reference names an empty or
// unset variable.
var ErrEnvNotSet = errors.New("not set")

// Defaults applied when a value is not configured.
const (
	DefaultAddr         = ":8080"
	DefaultBasePath     = "/api/decap-auth"
	DefaultAdminPath    = "/admin/"
	DefaultEditorConfig = "/admin/config.yml"
	DefaultEditorScript = "https://unpkg.com/decap-cms@^3.0.0/dist/decap-cms.js"
	DefaultScope        = "public_repo"
	DefaultStateTTL     = 300 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
)

// SupportedVersion is the prefix every config file version must carry.
const SupportedVersion = "v0.0.1-DEV_EDITION"

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// ServerConfig configures the HTTP listener and the auth subtree.
type ServerConfig struct {
	Addr string `json:"addr"`
	// RedirectBase is the canonical origin (scheme://host) callbacks are
	// registered against. Empty means the request's own origin.
	RedirectBase   string `json:"redirectBase"`
	BasePath       string `json:"basePath"`
	TrustForwarded bool   `json:"trustForwarded"`
}

// OAuthConfig configures the identity provider client.
// ClientID and ClientSecret may be empty at startup; requests then fail
// with a configuration error.
type OAuthConfig struct {
	Provider     string        `json:"provider"`
	ClientID     string        `json:"clientId"`
	ClientSecret Secret        `json:"clientSecret"`
	Scope        string        `json:"scope"`
	AuthorizeURL string        `json:"authorizeUrl,omitempty"`
	TokenURL     string        `json:"tokenUrl,omitempty"`
	StateTTL     time.Duration `json:"stateTtl"`
}

// AdminConfig configures the served admin page and its scripts.
type AdminConfig struct {
	Path         string        `json:"path"`
	EditorConfig string        `json:"editorConfig"`
	EditorScript string        `json:"editorScript"`
	PollInterval time.Duration `json:"pollInterval"`
}

// Config represents the config structure with resolved values
type Config struct {
	Server ServerConfig `json:"server"`
	OAuth  OAuthConfig  `json:"oauth"`
	Admin  AdminConfig  `json:"admin"`
}

// Default returns a config with every default applied and no credentials.
func Default() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	if c.OAuth.Provider == "" {
		c.OAuth.Provider = "github"
	}
	if c.OAuth.Scope == "" {
		c.OAuth.Scope = DefaultScope
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = DefaultStateTTL
	}
	if c.Admin.Path == "" {
		c.Admin.Path = DefaultAdminPath
	}
	if c.Admin.EditorConfig == "" {
		c.Admin.EditorConfig = DefaultEditorConfig
	}
	if c.Admin.EditorScript == "" {
		c.Admin.EditorScript = DefaultEditorScript
	}
	if c.Admin.PollInterval == 0 {
		c.Admin.PollInterval = DefaultPollInterval
	}
}

// RawConfigValue represents a value that could be a string or env ref.
// This is only used during parsing, not in the final config
type RawConfigValue struct {
	value string
}

// ParseConfigValue parses a JSON value that could be a string or reference object
func ParseConfigValue(raw json.RawMessage) (*RawConfigValue, error) {
	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return &RawConfigValue{value: str}, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return nil, fmt.Errorf("unknown reference type in config value")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s %w", envVar, ErrEnvNotSet)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return &RawConfigValue{value: value}, nil
}

// parseCredentialValue is parseOptionalValue for OAuth client credentials:
// an unset environment variable yields "" so that the server starts the same
// way it does when the credentials are missing from the environment.
func parseCredentialValue(raw json.RawMessage, field string) (string, error) {
	value, err := parseOptionalValue(raw, field)
	if errors.Is(err, ErrEnvNotSet) {
		return "", nil
	}
	return value, err
}

// parseOptionalValue resolves raw when present, returning "" otherwise.
func parseOptionalValue(raw json.RawMessage, field string) (string, error) {
	if raw == nil {
		return "", nil
	}
	parsed, err := ParseConfigValue(raw)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", field, err)
	}
	return parsed.value, nil
}
