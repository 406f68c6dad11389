package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name          string
		config        string
		wantErrors    []string
		wantWarnings  []string
		wantErrCount  int
		wantWarnCount int
	}{
		{
			name: "valid_config",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"addr": ":8080", "redirectBase": "https://example.com", "basePath": "/api/decap-auth"},
				"oauth": {
					"provider": "github",
					"clientId": {"$env": "GITHUB_CLIENT_ID"},
					"clientSecret": {"$env": "GITHUB_CLIENT_SECRET"},
					"stateTtl": "5m"
				},
				"admin": {"path": "/admin/", "pollInterval": "50ms"}
			}`,
			wantErrCount:  0,
			wantWarnCount: 0,
		},
		{
			name:         "missing_version_and_oauth",
			config:       `{}`,
			wantErrors:   []string{"version field is required", "oauth field is required"},
			wantErrCount: 2,
		},
		{
			name: "plain_text_secret",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "https://example.com"},
				"oauth": {"clientId": "abc", "clientSecret": "hunter2"}
			}`,
			wantErrors:   []string{"clientSecret must use environment variable reference"},
			wantErrCount: 1,
		},
		{
			name: "bash_style_secret",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "https://example.com"},
				"oauth": {"clientId": "abc", "clientSecret": "${GITHUB_CLIENT_SECRET}"}
			}`,
			wantErrors:    []string{"found bash-style syntax"},
			wantWarnings:  []string{"found bash-style syntax"},
			wantErrCount:  1,
			wantWarnCount: 1,
		},
		{
			name: "missing_credentials_warn",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "https://example.com"},
				"oauth": {}
			}`,
			wantWarnings:  []string{"clientId is not set", "clientSecret is not set"},
			wantWarnCount: 2,
		},
		{
			name: "bad_durations_and_paths",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "example.com", "basePath": "api"},
				"oauth": {"clientId": "abc", "clientSecret": {"$env": "S"}, "stateTtl": "1h"},
				"admin": {"path": "admin", "pollInterval": "soon"}
			}`,
			wantErrors: []string{
				"must be an absolute URL",
				"basePath 'api' must start with /",
				"stateTtl cannot exceed",
				"path 'admin' must start with /",
				"invalid duration 'soon'",
			},
			wantErrCount: 5,
		},
		{
			name: "redirect_base_with_path",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "https://example.com/site"},
				"oauth": {"clientId": "abc", "clientSecret": {"$env": "S"}}
			}`,
			wantErrors:   []string{"must be an origin without a path"},
			wantErrCount: 1,
		},
		{
			name: "http_redirect_base_warns",
			config: `{
				"version": "v0.0.1-DEV_EDITION",
				"server": {"redirectBase": "http://localhost:8788"},
				"oauth": {"clientId": "abc", "clientSecret": {"$env": "S"}}
			}`,
			wantWarnings:  []string{"plain http"},
			wantWarnCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0600))

			result, err := ValidateFile(path)
			require.NoError(t, err)

			assert.Len(t, result.Errors, tt.wantErrCount, "errors: %+v", result.Errors)
			assert.Len(t, result.Warnings, tt.wantWarnCount, "warnings: %+v", result.Warnings)

			for _, want := range tt.wantErrors {
				assert.True(t, containsMessage(result.Errors, want), "missing error %q in %+v", want, result.Errors)
			}
			for _, want := range tt.wantWarnings {
				assert.True(t, containsMessage(result.Warnings, want), "missing warning %q in %+v", want, result.Warnings)
			}
		})
	}
}

func TestValidateFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": `), 0600))

	result, err := ValidateFile(path)
	require.NoError(t, err)
	assert.False(t, result.IsValid())
	assert.Contains(t, result.Errors[0].Message, "invalid JSON")
}

func TestValidateFile_MissingFile(t *testing.T) {
	_, err := ValidateFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func containsMessage(issues []ValidationError, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(issue.Message, substr) {
			return true
		}
	}
	return false
}
