// Package prefs persists the converter's user preferences in
// ~/.config/satsrate/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/satsrate/internal/convert"
)

// Prefs holds what the TUI remembers between runs.
type Prefs struct {
	Theme string `toml:"theme"`
	// Focus is the unit key (btc, sats, jpy, usd, eur) focused at startup.
	Focus string `toml:"focus"`
}

const (
	defaultPrefsPath = "~/.config/satsrate/prefs.toml"
	defaultTheme     = "Nightfox"
)

var defaultFocus = convert.Sats.String()

// Default returns the preferences used when none are stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, Focus: defaultFocus}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// FocusField resolves Focus, falling back to sats for unknown keys.
func (p Prefs) FocusField() convert.Field {
	f, err := convert.ParseField(p.Focus)
	if err != nil {
		return convert.Sats
	}
	return f
}

// Load reads preferences from the given path. Missing or unreadable files
// yield defaults; preferences never block startup.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	if _, err := convert.ParseField(prefs.Focus); err != nil {
		prefs.Focus = defaultFocus
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
