package modes

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/types"
)

// Override adds user-specific note lines to one mode's rendered draft.
type Override struct {
	Notes []string `toml:"notes"`
}

// Overrides holds per-mode template additions loaded from modes.toml.
//
// Example file:
//
//	[modes.draft]
//	notes = ["Cite the course reader, not web sources."]
type Overrides struct {
	Modes map[string]Override `toml:"modes"`
}

// LoadOverrides reads mode overrides from the user config directory.
// A missing file yields empty overrides.
func LoadOverrides() (Overrides, error) {
	path, err := config.ModesPath()
	if err != nil {
		return Overrides{}, err
	}
	return LoadOverridesFrom(path)
}

// LoadOverridesFrom reads and parses a modes.toml at an explicit path.
func LoadOverridesFrom(path string) (Overrides, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the user config dir
	if os.IsNotExist(err) {
		return Overrides{}, nil
	}
	if err != nil {
		return Overrides{}, fmt.Errorf("read modes.toml: %w", err)
	}

	var ov Overrides
	if err := toml.Unmarshal(data, &ov); err != nil {
		return Overrides{}, fmt.Errorf("parse modes.toml: %w", err)
	}
	return ov, nil
}

// Notes returns the extra note lines configured for a mode, if any.
func (ov Overrides) Notes(mode types.Mode) []string {
	if ov.Modes == nil {
		return nil
	}
	return ov.Modes[string(mode)].Notes
}
