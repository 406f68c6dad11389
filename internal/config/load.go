package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dgellow/decap-auth/internal/envutil"
	"github.com/dgellow/decap-auth/internal/log"
	"github.com/dgellow/decap-auth/internal/urlutil"
)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, SupportedVersion) {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// The custom UnmarshalJSON methods resolve env vars immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	config.ApplyDefaults()

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig validates the config structure before environment resolution
func validateRawConfig(rawConfig map[string]any) error {
	oauth, ok := rawConfig["oauth"].(map[string]any)
	if !ok {
		return nil
	}
	value, exists := oauth["clientSecret"]
	if !exists {
		return nil
	}
	if _, isString := value.(string); isString {
		return fmt.Errorf("clientSecret must use environment variable reference for security")
	}
	if refMap, isMap := value.(map[string]any); isMap {
		if _, hasEnv := refMap["$env"]; !hasEnv {
			return fmt.Errorf("clientSecret must use {\"$env\": \"VAR_NAME\"} format")
		}
	}
	return nil
}

// ValidateConfig validates the resolved configuration and normalizes paths.
// Missing client credentials only produce warnings.
func ValidateConfig(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	basePath, err := normalizeBasePath(config.Server.BasePath)
	if err != nil {
		return fmt.Errorf("server.basePath: %w", err)
	}
	config.Server.BasePath = basePath

	if config.Server.RedirectBase != "" {
		base, err := normalizeRedirectBase(config.Server.RedirectBase)
		if err != nil {
			return fmt.Errorf("server.redirectBase: %w", err)
		}
		config.Server.RedirectBase = base
	}

	if err := validateOAuthConfig(&config.OAuth); err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}

	adminPath := config.Admin.Path
	if !strings.HasPrefix(adminPath, "/") {
		return fmt.Errorf("admin.path must start with /")
	}
	if !strings.HasSuffix(adminPath, "/") {
		config.Admin.Path = adminPath + "/"
	}
	if strings.HasPrefix(config.Admin.Path, config.Server.BasePath+"/") {
		return fmt.Errorf("admin.path cannot be inside server.basePath")
	}
	if config.Admin.PollInterval <= 0 {
		return fmt.Errorf("admin.pollInterval must be positive")
	}

	return nil
}

func validateOAuthConfig(oauth *OAuthConfig) error {
	if oauth.Provider != "github" {
		return fmt.Errorf("unsupported provider: %s (only 'github' is supported)", oauth.Provider)
	}
	if oauth.StateTTL <= 0 {
		return fmt.Errorf("stateTtl must be positive")
	}
	if oauth.StateTTL > DefaultStateTTL {
		return fmt.Errorf("stateTtl cannot exceed %s", DefaultStateTTL)
	}
	for name, endpoint := range map[string]string{"authorizeUrl": oauth.AuthorizeURL, "tokenUrl": oauth.TokenURL} {
		if endpoint == "" {
			continue
		}
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", name)
		}
	}

	if oauth.ClientID == "" {
		log.LogWarn("OAuth client ID is not configured; logins will fail until it is set")
	}
	if oauth.ClientSecret == "" {
		log.LogWarn("OAuth client secret is not configured; callbacks will fail until it is set")
	}
	return nil
}

func normalizeBasePath(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("must start with /")
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", fmt.Errorf("cannot be the site root")
	}
	return p, nil
}

func normalizeRedirectBase(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("must be an absolute URL")
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !envutil.IsDev() {
			return "", fmt.Errorf("must use https (set DECAP_AUTH_ENV=dev to allow http)")
		}
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("cannot carry a query or fragment")
	}
	if strings.Trim(u.Path, "/") != "" {
		return "", fmt.Errorf("must be an origin without a path (got %q); set server.basePath instead", u.Path)
	}
	return u.Scheme + "://" + urlutil.StripDefaultPort(u.Scheme, u.Host), nil
}
