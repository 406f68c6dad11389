package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// UnmarshalJSON implements custom unmarshaling for ServerConfig
func (s *ServerConfig) UnmarshalJSON(data []byte) error {
	type rawServer struct {
		Addr           json.RawMessage `json:"addr"`
		RedirectBase   json.RawMessage `json:"redirectBase"`
		BasePath       string          `json:"basePath"`
		TrustForwarded bool            `json:"trustForwarded"`
	}

	var raw rawServer
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.BasePath = raw.BasePath
	s.TrustForwarded = raw.TrustForwarded

	var err error
	if s.Addr, err = parseOptionalValue(raw.Addr, "addr"); err != nil {
		return err
	}
	if s.RedirectBase, err = parseOptionalValue(raw.RedirectBase, "redirectBase"); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON implements custom unmarshaling for OAuthConfig
func (o *OAuthConfig) UnmarshalJSON(data []byte) error {
	type rawOAuth struct {
		Provider     string          `json:"provider"`
		ClientID     json.RawMessage `json:"clientId"`
		ClientSecret json.RawMessage `json:"clientSecret"`
		Scope        string          `json:"scope"`
		AuthorizeURL string          `json:"authorizeUrl"`
		TokenURL     string          `json:"tokenUrl"`
		StateTTL     string          `json:"stateTtl"`
	}

	var raw rawOAuth
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Provider = raw.Provider
	o.Scope = raw.Scope
	o.AuthorizeURL = raw.AuthorizeURL
	o.TokenURL = raw.TokenURL

	if raw.StateTTL != "" {
		ttl, err := time.ParseDuration(raw.StateTTL)
		if err != nil {
			return fmt.Errorf("parsing stateTtl: %w", err)
		}
		o.StateTTL = ttl
	}

	clientID, err := parseCredentialValue(raw.ClientID, "clientId")
	if err != nil {
		return err
	}
	o.ClientID = clientID

	clientSecret, err := parseCredentialValue(raw.ClientSecret, "clientSecret")
	if err != nil {
		return err
	}
	o.ClientSecret = Secret(clientSecret)

	return nil
}

// UnmarshalJSON implements custom unmarshaling for AdminConfig
func (a *AdminConfig) UnmarshalJSON(data []byte) error {
	type rawAdmin struct {
		Path         string `json:"path"`
		EditorConfig string `json:"editorConfig"`
		EditorScript string `json:"editorScript"`
		PollInterval string `json:"pollInterval"`
	}

	var raw rawAdmin
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Path = raw.Path
	a.EditorConfig = raw.EditorConfig
	a.EditorScript = raw.EditorScript

	if raw.PollInterval != "" {
		interval, err := time.ParseDuration(raw.PollInterval)
		if err != nil {
			return fmt.Errorf("parsing pollInterval: %w", err)
		}
		a.PollInterval = interval
	}
	return nil
}
