package idp

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// DefaultGitHubScope grants access to public repositories only.
const DefaultGitHubScope = "public_repo"

const githubHTTPTimeout = 15 * time.Second

// GitHubConfig configures a GitHubProvider.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	// AuthURL and TokenURL override the github.com endpoints
	// (GitHub Enterprise, tests).
	AuthURL  string
	TokenURL string
	// HTTPClient is used for the token exchange; defaults to a client with
	// a 15s timeout.
	HTTPClient *http.Client
}

// GitHubProvider implements the Provider interface for GitHub OAuth apps.
// GitHub answers the token request with 200 even for OAuth errors, so the
// response body decides between success and failure.
type GitHubProvider struct {
	config     oauth2.Config
	httpClient *http.Client
}

// NewGitHubProvider creates a new GitHub OAuth provider.
func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// client_id and client_secret travel in the form body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scope := cfg.Scope
	if scope == "" {
		scope = DefaultGitHubScope
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: githubHTTPTimeout}
	}
	client := *base
	client.Transport = acceptJSONTransport{base: base.Transport}

	return &GitHubProvider{
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{scope},
			Endpoint:     endpoint,
		},
		httpClient: &client,
	}
}

// Type returns the provider type.
func (p *GitHubProvider) Type() string {
	return "github"
}

// CheckClient reports missing client credentials.
func (p *GitHubProvider) CheckClient(withSecret bool) error {
	if p.config.ClientID == "" {
		return ErrMissingClientID
	}
	if withSecret && p.config.ClientSecret == "" {
		return ErrMissingClientSecret
	}
	return nil
}

// AuthURL generates the authorization URL. New-account signup is refused
// on the provider's login page.
func (p *GitHubProvider) AuthURL(state, redirectURI string) (string, error) {
	if err := p.CheckClient(false); err != nil {
		return "", err
	}
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("allow_signup", "false"),
	), nil
}

// ExchangeCode exchanges an authorization code for a token. It is never
// retried: codes are single-use.
func (p *GitHubProvider) ExchangeCode(ctx context.Context, code, state, redirectURI string) (*oauth2.Token, error) {
	if err := p.CheckClient(true); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("state", state),
	)
	if err != nil {
		return nil, classifyExchangeError(err)
	}
	return token, nil
}

// acceptJSONTransport asks the token endpoint for a JSON response.
type acceptJSONTransport struct {
	base http.RoundTripper
}

func (t acceptJSONTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	return base.RoundTrip(req)
}
