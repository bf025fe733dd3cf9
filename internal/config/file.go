package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is the on-disk shape of config.json.
type File struct {
	CanvasBaseURL string `json:"canvas_base_url,omitempty"`

	// CanvasAPIToken is the legacy v1 token key, kept so older installs
	// keep working after an upgrade writes the nested auth block.
	CanvasAPIToken string `json:"canvas_api_token,omitempty"`

	Auth     *AuthConfig     `json:"auth,omitempty"`
	Branding *BrandingConfig `json:"branding,omitempty"`
	Review   *ReviewConfig   `json:"review,omitempty"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	Mode  string `json:"mode,omitempty"`
	Token string `json:"token,omitempty"`
}

// BrandingConfig holds user overrides for school branding.
type BrandingConfig struct {
	SchoolName string `json:"school_name,omitempty"`
	LogoURL    string `json:"logo_url,omitempty"`
}

// ReviewConfig holds review-token settings.
type ReviewConfig struct {
	TokenTTLMinutes int `json:"token_ttl_minutes,omitempty"`
}

// LoadFile reads config.json. Missing or unparseable files yield an empty
// config rather than an error.
func LoadFile() (*File, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return &File{}, nil
	}
	return &f, nil
}

// Save writes the config file with 0600 permissions and reloads the package
// singleton so changes take effect immediately.
func (f *File) Save() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	if err := Initialize(); err != nil {
		return "", err
	}
	return path, nil
}

// SaveToken stores a verified API token and switches auth mode to token.
// The base URL is captured from the environment when present so a later
// session works without CANVAS_BASE_URL exported.
func SaveToken(token string) (string, error) {
	f, err := LoadFile()
	if err != nil {
		return "", err
	}

	clean := strings.TrimSpace(token)
	f.CanvasAPIToken = clean
	if f.Auth == nil {
		f.Auth = &AuthConfig{}
	}
	f.Auth.Mode = AuthModeToken
	f.Auth.Token = clean

	if base := os.Getenv(EnvBaseURL); base != "" {
		f.CanvasBaseURL = base
	}
	return f.Save()
}

// SetAuthMode persists the auth mode selection.
func SetAuthMode(mode string) (string, error) {
	if mode != AuthModeToken && mode != AuthModeOAuth {
		return "", fmt.Errorf("invalid auth mode: %s (expected %s or %s)", mode, AuthModeToken, AuthModeOAuth)
	}
	f, err := LoadFile()
	if err != nil {
		return "", err
	}
	if f.Auth == nil {
		f.Auth = &AuthConfig{}
	}
	f.Auth.Mode = mode
	return f.Save()
}

// SetBranding persists branding overrides. Nil fields are left untouched so
// the school name and logo can be set independently.
func SetBranding(schoolName, logoURL *string) (string, error) {
	f, err := LoadFile()
	if err != nil {
		return "", err
	}
	if f.Branding == nil {
		f.Branding = &BrandingConfig{}
	}
	if schoolName != nil {
		f.Branding.SchoolName = *schoolName
	}
	if logoURL != nil {
		f.Branding.LogoURL = *logoURL
	}
	return f.Save()
}

// MaskToken renders a token for status output without leaking it.
func MaskToken(token string) string {
	if token == "" {
		return "not configured"
	}
	if len(token) < 6 {
		return "configured"
	}
	return fmt.Sprintf("configured (%s***%s)", token[:2], token[len(token)-2:])
}
