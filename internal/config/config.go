// Package config manages canvas-ai configuration: a JSON config file under
// ~/.config/canvas-ai read through a viper singleton, with environment
// variables taking precedence for credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Auth modes. OAuth is a placeholder until the real flow lands; selecting it
// without a token makes auth-requiring commands fail with guidance.
const (
	AuthModeToken = "token"
	AuthModeOAuth = "oauth_placeholder"
)

// DefaultTokenTTLMinutes is the review-token lifetime when the config file
// does not override review.token_ttl_minutes.
const DefaultTokenTTLMinutes = 10

// v is the package-level viper instance, set by Initialize.
var v *viper.Viper

// Initialize loads config.json into the package singleton. A missing config
// file is not an error; a corrupt one is ignored so a bad file never bricks
// the CLI.
func Initialize() error {
	vNew := viper.New()
	vNew.SetConfigName("config")
	vNew.SetConfigType("json")

	dir, err := Dir()
	if err != nil {
		return err
	}
	vNew.AddConfigPath(dir)

	vNew.SetDefault("auth.mode", AuthModeToken)
	vNew.SetDefault("review.token_ttl_minutes", DefaultTokenTTLMinutes)

	if err := vNew.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var parseErr viper.ConfigParseError
		if !errors.As(err, &notFound) && !errors.As(err, &parseErr) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	v = vNew
	return nil
}

// GetString returns a string config value. Returns "" if config is not initialized.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns a boolean config value. Returns false if config is not initialized.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt returns an integer config value. Returns 0 if config is not initialized.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// CanvasToken returns the API token: CANVAS_API_TOKEN, then auth.token from
// the config file, then the legacy top-level canvas_api_token key.
func CanvasToken() string {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok
	}
	if tok := GetString("auth.token"); tok != "" {
		return tok
	}
	return GetString("canvas_api_token")
}

// CanvasBaseURL returns the instance base URL: CANVAS_BASE_URL, then the
// config file.
func CanvasBaseURL() string {
	if base := os.Getenv(EnvBaseURL); base != "" {
		return base
	}
	return GetString("canvas_base_url")
}

// AuthMode returns the configured auth mode, defaulting to token for
// unrecognized values.
func AuthMode() string {
	mode := GetString("auth.mode")
	if mode == AuthModeToken || mode == AuthModeOAuth {
		return mode
	}
	return AuthModeToken
}

// TokenTTL returns the review-token lifetime.
func TokenTTL() time.Duration {
	minutes := GetInt("review.token_ttl_minutes")
	if minutes <= 0 {
		minutes = DefaultTokenTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// BrandingOverrides returns the user-set school name and logo URL, either of
// which may be empty.
func BrandingOverrides() (schoolName, logoURL string) {
	return GetString("branding.school_name"), GetString("branding.logo_url")
}
