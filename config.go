package drip

import (
	"fmt"
	"log/slog"
)

// Config holds user-tunable settings for the command-line client.
// Zero-valued fields fall back to DefaultConfig values.
type Config struct {
	BaseURL      string         `toml:"base_url"`
	APIKey       string         `toml:"api_key,omitempty"`
	Model        string         `toml:"model"`
	SystemPrompt string         `toml:"system_prompt"`
	MaxTokens    int            `toml:"max_tokens,omitempty"`
	Temperature  *float64       `toml:"temperature,omitempty"`
	ChunkSize    int            `toml:"chunk_size"`
	MaxLineSize  int            `toml:"max_line_size"`
	Referer      string         `toml:"referer,omitempty"`
	Title        string         `toml:"title"`
	LogLevel     string         `toml:"log_level"`
	LogFile      string         `toml:"log_file,omitempty"`
	Extra        map[string]any `toml:"extra,omitempty"` // request fields spliced in by JSON path
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		Model:        "openrouter/auto",
		SystemPrompt: "You are a helpful assistant.",
		ChunkSize:    4096,
		MaxLineSize:  1 << 20,
		Title:        "drip",
		LogLevel:     "warn",
	}
}

// Validate checks the configuration for values no component can accept.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must be set: %w", ErrValidation)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d: %w", c.ChunkSize, ErrValidation)
	}
	if c.MaxLineSize <= 0 {
		return fmt.Errorf("max_line_size must be positive, got %d: %w", c.MaxLineSize, ErrValidation)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", c.MaxTokens, ErrValidation)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *c.Temperature, ErrValidation)
	}
	// Empty means info, as for the logger.
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); c.LogLevel != "" && err != nil {
		return fmt.Errorf("log_level %q: %w", c.LogLevel, ErrValidation)
	}
	return nil
}
