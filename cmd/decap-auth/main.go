package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dgellow/decap-auth/internal"
	"github.com/dgellow/decap-auth/internal/config"
	"github.com/dgellow/decap-auth/internal/log"
)

var BuildVersion = "dev"

func defaultConfig() map[string]any {
	return map[string]any{
		"version": config.SupportedVersion,
		"server": map[string]any{
			"addr":           ":8080",
			"redirectBase":   "https://cms.yourcompany.com",
			"basePath":       config.DefaultBasePath,
			"trustForwarded": false,
		},
		"oauth": map[string]any{
			"provider":     "github",
			"clientId":     map[string]string{"$env": "GITHUB_CLIENT_ID"},
			"clientSecret": map[string]string{"$env": "GITHUB_CLIENT_SECRET"},
			"scope":        config.DefaultScope,
			"stateTtl":     config.DefaultStateTTL.String(),
		},
		"admin": map[string]any{
			"path":         config.DefaultAdminPath,
			"editorConfig": config.DefaultEditorConfig,
			"editorScript": config.DefaultEditorScript,
			"pollInterval": config.DefaultPollInterval.String(),
		},
	}
}

func generateDefaultConfig(path string) error {
	data, err := json.MarshalIndent(defaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(path string) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Printf("Validating: %s\n", path)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Path != "" {
				fmt.Printf("  - %s: %s\n", err.Path, err.Message)
			} else {
				fmt.Printf("  - %s\n", err.Message)
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Path != "" {
				fmt.Printf("  - %s: %s\n", warn.Path, warn.Message)
			} else {
				fmt.Printf("  - %s\n", warn.Message)
			}
		}
	}

	fmt.Println()
	switch {
	case len(result.Errors) > 0:
		fmt.Println("Result: FAIL")
	case len(result.Warnings) > 0:
		fmt.Println("Result: PASS (with warnings)")
	default:
		fmt.Println("Result: PASS")
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("validation failed: %d error(s)", len(result.Errors))
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func main() {
	conf := flag.String("config", "", "path to config file (environment variables are used when omitted)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	logLevel := flag.String("log-level", "", "override LOG_LEVEL (error, warn, info, debug, trace)")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *logLevel != "" {
		if err := log.SetLogLevel(*logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *validate {
		if *conf == "" {
			fmt.Fprintf(os.Stderr, "Error: -config flag is required for validation\n")
			os.Exit(1)
		}
		if err := validateConfig(*conf); err != nil {
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	source := *conf
	if source == "" {
		source = "environment"
	}
	log.LogInfoWithFields("main", "Starting decap-auth", map[string]any{
		"version": BuildVersion,
		"config":  source,
	})

	app, err := internal.NewDecapAuth(cfg)
	if err != nil {
		log.LogError("Failed to create OAuth broker: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.LogError("Failed to start server: %v", err)
		os.Exit(1)
	}
}
