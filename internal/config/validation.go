package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

var bashStyleRegex = regexp.MustCompile(`\$\{?[A-Z_][A-Z0-9_]*\}?`)

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
		})
		return result, nil
	}

	checkBashStyleSyntax(rawConfig, "", result)

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: "version field is required. Hint: Add \"version\": \"v0.0.1-DEV_EDITION\"",
		})
	} else if !strings.HasPrefix(version, SupportedVersion) {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "version",
			Message: fmt.Sprintf("unsupported version '%s' - use 'v0.0.1-DEV_EDITION' or 'v0.0.1-DEV_EDITION-<variant>'", version),
		})
	}

	validateServerStructure(rawConfig, result)
	validateOAuthStructure(rawConfig, result)
	validateAdminStructure(rawConfig, result)

	return result, nil
}

// validateServerStructure checks the server section
func validateServerStructure(rawConfig map[string]any, result *ValidationResult) {
	server, ok := rawConfig["server"].(map[string]any)
	if !ok {
		if _, present := rawConfig["server"]; present {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "server",
				Message: "server must be an object",
			})
		}
		return
	}

	if basePath, ok := server["basePath"].(string); ok && !strings.HasPrefix(basePath, "/") {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "server.basePath",
			Message: fmt.Sprintf("basePath '%s' must start with /. Example: \"/api/decap-auth\"", basePath),
		})
	}

	if base, ok := server["redirectBase"].(string); ok {
		if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "server.redirectBase",
				Message: fmt.Sprintf("redirectBase '%s' must be an absolute URL. Example: \"https://example.com\"", base),
			})
		} else if u, err := url.Parse(base); err == nil && strings.Trim(u.Path, "/") != "" {
			result.Errors = append(result.Errors, ValidationError{
				Path:    "server.redirectBase",
				Message: fmt.Sprintf("redirectBase '%s' must be an origin without a path; use server.basePath for the mount point", base),
			})
		} else if strings.HasPrefix(base, "http://") {
			result.Warnings = append(result.Warnings, ValidationError{
				Path:    "server.redirectBase",
				Message: "redirectBase uses plain http; it is only accepted with DECAP_AUTH_ENV=dev",
			})
		}
	} else if _, present := server["redirectBase"]; !present {
		result.Warnings = append(result.Warnings, ValidationError{
			Path:    "server.redirectBase",
			Message: "redirectBase is not set; callbacks will use each request's own origin and no host normalization happens",
		})
	}
}

// validateOAuthStructure checks the oauth section
func validateOAuthStructure(rawConfig map[string]any, result *ValidationResult) {
	oauth, ok := rawConfig["oauth"].(map[string]any)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "oauth",
			Message: "oauth field is required and must be an object",
		})
		return
	}

	if provider, ok := oauth["provider"].(string); ok && provider != "github" {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "oauth.provider",
			Message: fmt.Sprintf("unknown provider '%s' - only 'github' is supported", provider),
		})
	}

	if _, ok := oauth["clientId"]; !ok {
		result.Warnings = append(result.Warnings, ValidationError{
			Path:    "oauth.clientId",
			Message: "clientId is not set; /auth will answer 500 until it is configured",
		})
	}

	if secret, ok := oauth["clientSecret"]; ok {
		if err := validateEnvVarReference(secret, "clientSecret", "oauth.clientSecret"); err != nil {
			result.Errors = append(result.Errors, *err)
		}
	} else {
		result.Warnings = append(result.Warnings, ValidationError{
			Path:    "oauth.clientSecret",
			Message: "clientSecret is not set; /callback will answer 500 until it is configured",
		})
	}

	validateDuration(oauth, "stateTtl", "oauth.stateTtl", DefaultStateTTL, result)
}

// validateAdminStructure checks the admin section
func validateAdminStructure(rawConfig map[string]any, result *ValidationResult) {
	admin, ok := rawConfig["admin"].(map[string]any)
	if !ok {
		return
	}

	if p, ok := admin["path"].(string); ok && !strings.HasPrefix(p, "/") {
		result.Errors = append(result.Errors, ValidationError{
			Path:    "admin.path",
			Message: fmt.Sprintf("path '%s' must start with /. Example: \"/admin/\"", p),
		})
	}

	validateDuration(admin, "pollInterval", "admin.pollInterval", 0, result)
}

// validateDuration checks a duration field is parseable, positive and at most max (0: no max)
func validateDuration(section map[string]any, field, path string, max time.Duration, result *ValidationResult) {
	raw, ok := section[field]
	if !ok {
		return
	}
	s, ok := raw.(string)
	if !ok {
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must be a duration string. Example: \"5m\"", field),
		})
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("invalid duration '%s': %v", s, err),
		})
		return
	}
	if d <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must be positive", field),
		})
	} else if max > 0 && d > max {
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s cannot exceed %s", field, max),
		})
	}
}

// validateEnvVarReference validates that a field uses proper env var reference format
func validateEnvVarReference(value any, fieldName, path string) *ValidationError {
	switch v := value.(type) {
	case string:
		if matches := bashStyleRegex.FindStringSubmatch(v); len(matches) > 0 {
			varName := strings.Trim(matches[0], "${}")
			return &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", v, varName),
			}
		}
		return &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must use environment variable reference {\"$env\": \"YOUR_ENV_VAR\"} instead of plain text. Hint: This prevents secrets from being stored in config files", fieldName),
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; !hasEnv {
			return &ValidationError{
				Path:    path,
				Message: fmt.Sprintf("%s must use {\"$env\": \"YOUR_ENV_VAR\"} format", fieldName),
			}
		}
		return nil
	default:
		return &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("%s must be an environment variable reference {\"$env\": \"YOUR_ENV_VAR\"}, not %T", fieldName, value),
		}
	}
}

// checkBashStyleSyntax recursively checks for bash-style env var syntax
func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	switch v := value.(type) {
	case string:
		for _, match := range bashStyleRegex.FindAllString(v, -1) {
			varName := strings.Trim(match, "${}")
			result.Warnings = append(result.Warnings, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", match, varName),
			})
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; hasEnv {
			return
		}
		for key, val := range v {
			newPath := key
			if path != "" {
				newPath = path + "." + key
			}
			checkBashStyleSyntax(val, newPath, result)
		}
	case []any:
		for i, item := range v {
			checkBashStyleSyntax(item, fmt.Sprintf("%s[%d]", path, i), result)
		}
	}
}
