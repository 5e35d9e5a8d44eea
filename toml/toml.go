// Package toml reads and writes drip.Config as TOML.
package toml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/drip"
)

// DefaultPath returns ~/.drip/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("toml: %w", err)
	}
	return filepath.Join(home, ".drip", "config.toml"), nil
}

// Load decodes the file at path over base. Keys present in the file replace
// the values in base; absent keys keep them. Unknown keys are rejected with
// an error wrapping drip.ErrValidation. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func Load(path string, base drip.Config) (drip.Config, error) {
	cfg := base
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("toml: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return base, fmt.Errorf("toml: %s: unknown keys %s: %w", path, strings.Join(keys, ", "), drip.ErrValidation)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. The file is
// readable only by its owner because it may hold an API key.
func Save(path string, cfg drip.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("toml: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("toml: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "# drip configuration")
	fmt.Fprintln(f)
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("toml: encode: %w", err)
	}
	return f.Close()
}
