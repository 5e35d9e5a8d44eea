// Package zerolog builds [slog.Logger] values backed by rs/zerolog.
package zerolog

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level written: debug, info, warn or error,
	// optionally with an offset such as "info+2". Empty means info.
	Level string

	// Pretty writes human-readable lines instead of JSON.
	Pretty bool

	// NoColor disables ANSI colors in pretty output.
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	out := w
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Stamp, NoColor: opts.NoColor}
	}
	zl := zerolog.New(out).With().Timestamp().Logger()
	return slog.New(zeroslog.NewHandler(zl, &zeroslog.HandlerOptions{Level: lvl})), nil
}

// ParseLevel parses a level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("zerolog: invalid level %q: %w", s, err)
	}
	return lvl, nil
}
