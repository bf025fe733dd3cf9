package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables honored by the CLI.
const (
	EnvToken   = "CANVAS_API_TOKEN"
	EnvBaseURL = "CANVAS_BASE_URL"
	EnvDBPath  = "CANVAS_AI_DB"
)

// Dir returns the configuration directory (~/.config/canvas-ai, honoring
// XDG_CONFIG_HOME).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(base, "canvas-ai"), nil
}

// Path returns the config.json path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PolicyPath returns the course policy file path for the given extension
// ("json" or "yaml").
func PolicyPath(ext string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "policy."+ext), nil
}

// ModesPath returns the user mode-template override file path.
func ModesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "modes.toml"), nil
}

// DataDir returns the data directory (~/.local/share/canvas-ai, honoring
// XDG_DATA_HOME).
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "canvas-ai"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "canvas-ai"), nil
}

// DefaultDBPath returns the run-history database path: CANVAS_AI_DB when
// set, otherwise history.db in the data directory.
func DefaultDBPath() (string, error) {
	if env := os.Getenv(EnvDBPath); env != "" {
		return env, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ArtifactsDir returns the root directory for run artifacts. Each run gets
// its own subdirectory named by run ID.
func ArtifactsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "artifacts"), nil
}

// RunArtifactsDir returns (and creates) the artifact directory for one run.
func RunArtifactsDir(runID string) (string, error) {
	root, err := ArtifactsDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return dir, nil
}
