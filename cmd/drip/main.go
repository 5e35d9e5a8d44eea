// Command drip is a streaming chat client for OpenRouter-compatible APIs.
//
// Usage:
//
//	OPENROUTER_API_KEY=sk-... drip [flags]
//	OPENROUTER_API_KEY=sk-... drip -p "prompt"
//
// Flags:
//
//	-config string        Path to config file (default: ~/.drip/config.toml)
//	-model string         Model ID
//	-api-key string       API key (overrides DRIP_API_KEY and OPENROUTER_API_KEY)
//	-base-url string      API base URL
//	-system-prompt string System prompt
//	-p string             Run one turn with this prompt and print the reply
//	-log-level string     Log level: debug, info, warn, error
//	-log-file string      Write JSON logs to this file
//	-init-config          Write the resolved configuration to the config path and exit
//
// A .env file in the working directory is loaded before flags are read.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"

	"github.com/fwojciec/drip"
	bt "github.com/fwojciec/drip/bubbletea"
	"github.com/fwojciec/drip/console"
	"github.com/fwojciec/drip/openrouter"
	"github.com/fwojciec/drip/toml"
	"github.com/fwojciec/drip/turn"
	"github.com/fwojciec/drip/zerolog"
	_ "github.com/joho/godotenv/autoload"
)

// errTurnFailed is returned after the printer has already shown the
// classified error.
var errTurnFailed = errors.New("turn failed")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drip: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		f          flagValues
		prompt     string
		initConfig bool
	)
	flag.StringVar(&f.configPath, "config", "", "Path to config file (default: ~/.drip/config.toml)")
	flag.StringVar(&f.model, "model", "", "Model ID")
	flag.StringVar(&f.apiKey, "api-key", "", "API key (overrides DRIP_API_KEY and OPENROUTER_API_KEY)")
	flag.StringVar(&f.baseURL, "base-url", "", "API base URL")
	flag.StringVar(&f.systemPrompt, "system-prompt", "", "System prompt")
	flag.StringVar(&prompt, "p", "", "Run one turn with this prompt and print the reply")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&f.logFile, "log-file", "", "Write JSON logs to this file")
	flag.BoolVar(&initConfig, "init-config", false, "Write the resolved configuration to the config path and exit")
	flag.Parse()

	// A missing home directory only disables the default config file.
	defaultPath, _ := toml.DefaultPath()

	// Env vars are read here and passed as values.
	cfg, err := resolveConfig(f, envValues{
		dripKey:       os.Getenv("DRIP_API_KEY"),
		openrouterKey: os.Getenv("OPENROUTER_API_KEY"),
		model:         os.Getenv("DRIP_MODEL"),
		baseURL:       os.Getenv("DRIP_BASE_URL"),
	}, defaultPath)
	if err != nil {
		return err
	}

	if initConfig {
		path := firstNonEmpty(f.configPath, defaultPath)
		if path == "" {
			return errors.New("init-config: no config path")
		}
		if err := writeConfig(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", path)
		return nil
	}

	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, prompt != "")
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := turn.New(newTransport(cfg), engineOptions(cfg, logger)...)

	if prompt != "" {
		return oneShot(ctx, engine, prompt, os.Stdout)
	}

	var conv drip.Conversation
	turnFn := func(ctx context.Context, conv *drip.Conversation, onUpdate func(drip.Update)) error {
		return engine.Run(ctx, conv, turn.WithObserver(drip.ObserverFunc(onUpdate)))
	}
	if err := bt.Run(ctx, bt.New(turnFn, &conv, drip.DefaultTheme())); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	return nil
}

// oneShot runs a single turn for prompt and streams the reply to w.
func oneShot(ctx context.Context, engine *turn.Engine, prompt string, w io.Writer) error {
	conv := drip.Conversation{drip.UserMessage(prompt)}
	err := engine.Run(ctx, &conv, turn.WithObserver(console.NewPrinter(w)))
	var de *drip.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return errTurnFailed
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w)
		return nil
	default:
		return err
	}
}

func newTransport(cfg drip.Config) *openrouter.Client {
	opts := []openrouter.Option{
		openrouter.WithBaseURL(cfg.BaseURL),
		openrouter.WithChunkSize(cfg.ChunkSize),
		openrouter.WithTitle(cfg.Title),
	}
	if cfg.Referer != "" {
		opts = append(opts, openrouter.WithReferer(cfg.Referer))
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Extra)) {
		opts = append(opts, openrouter.WithExtra(k, cfg.Extra[k]))
	}
	return openrouter.New(cfg.APIKey, opts...)
}

func engineOptions(cfg drip.Config, logger *slog.Logger) []turn.Option {
	return []turn.Option{
		turn.WithModel(cfg.Model),
		turn.WithSystemPrompt(cfg.SystemPrompt),
		turn.WithMaxTokens(cfg.MaxTokens),
		turn.WithTemperature(cfg.Temperature),
		turn.WithMaxLineSize(cfg.MaxLineSize),
		turn.WithLogger(logger),
	}
}

// newLogger writes JSON to the configured log file. Without one, one-shot
// runs log readable lines to stderr and the TUI, which owns the terminal,
// does not log.
func newLogger(cfg drip.Config, oneShot bool) (*slog.Logger, func(), error) {
	switch {
	case cfg.LogFile != "":
		file, err := os.OpenFile(cfg.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logger, err := zerolog.New(file, zerolog.Options{Level: cfg.LogLevel})
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return logger, func() { file.Close() }, nil
	case oneShot:
		logger, err := zerolog.New(os.Stderr, zerolog.Options{Level: cfg.LogLevel, Pretty: true})
		if err != nil {
			return nil, nil, err
		}
		return logger, func() {}, nil
	default:
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
}
