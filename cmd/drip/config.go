package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/toml"
)

// flagValues holds the command-line flags that override configuration.
// Empty strings mean the flag was not given.
type flagValues struct {
	configPath   string
	model        string
	apiKey       string
	baseURL      string
	systemPrompt string
	logLevel     string
	logFile      string
}

// envValues holds the environment variables read by main.
type envValues struct {
	dripKey       string // DRIP_API_KEY
	openrouterKey string // OPENROUTER_API_KEY
	model         string // DRIP_MODEL
	baseURL       string // DRIP_BASE_URL
}

// resolveConfig layers the config file, the environment and the flags over
// drip.DefaultConfig, in that order. A missing file at defaultPath is
// tolerated; a missing file named by -config is not.
func resolveConfig(f flagValues, env envValues, defaultPath string) (drip.Config, error) {
	cfg, err := loadConfigFile(f.configPath, defaultPath)
	if err != nil {
		return drip.Config{}, err
	}

	if key := firstNonEmpty(env.dripKey, env.openrouterKey); key != "" {
		cfg.APIKey = key
	}
	setIf(&cfg.Model, env.model)
	setIf(&cfg.BaseURL, env.baseURL)

	setIf(&cfg.APIKey, f.apiKey)
	setIf(&cfg.Model, f.model)
	setIf(&cfg.BaseURL, f.baseURL)
	setIf(&cfg.SystemPrompt, f.systemPrompt)
	setIf(&cfg.LogLevel, f.logLevel)
	setIf(&cfg.LogFile, f.logFile)

	if err := cfg.Validate(); err != nil {
		return drip.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

var errNoAPIKey = errors.New("no API key found: set DRIP_API_KEY or OPENROUTER_API_KEY, or use -api-key")

func requireAPIKey(cfg drip.Config) error {
	if cfg.APIKey == "" {
		return errNoAPIKey
	}
	return nil
}

func loadConfigFile(explicit, defaultPath string) (drip.Config, error) {
	path := explicit
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return drip.DefaultConfig(), nil
	}
	cfg, err := toml.Load(path, drip.DefaultConfig())
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist) && explicit == "":
		return drip.DefaultConfig(), nil
	default:
		return drip.Config{}, fmt.Errorf("load config: %w", err)
	}
}

// writeConfig saves cfg to path without the API key, which belongs in the
// environment.
func writeConfig(path string, cfg drip.Config) error {
	cfg.APIKey = ""
	if err := toml.Save(path, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
