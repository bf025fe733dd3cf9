// Package org resolves school branding (name and logo) for the configured
// Canvas instance. Three sources are tried in fixed precedence: user
// overrides from the config file, the accounts/theme API endpoints, then a
// name guessed from the instance domain. The probe report explains which
// source won and which endpoints were skipped or failed.
package org

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode"

	"github.com/canvasai/canvas-ai/internal/canvas"
)

// Branding sources, strongest to weakest.
const (
	SourceOverride    = "user_override"
	SourceAPITheme    = "api_theme"
	SourceDomainGuess = "domain_guess"
)

// Info is the resolved branding. Empty fields mean the source had nothing.
type Info struct {
	SchoolName string `json:"school_name"`
	LogoURL    string `json:"logo_url"`
	Source     string `json:"source"`
}

// ProbeAttempt records one resolution step for the probe report.
type ProbeAttempt struct {
	Endpoint   string `json:"endpoint"`
	Needed     bool   `json:"needed"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail"`
	SchoolName string `json:"school_name,omitempty"`
	LogoURL    string `json:"logo_url,omitempty"`
}

// ProbeReport is the full trace of a resolution: the precedence order, every
// attempt, and why the winning source won.
type ProbeReport struct {
	SourceOrder  []string       `json:"source_order"`
	Attempts     []ProbeAttempt `json:"attempts"`
	WinnerSource string         `json:"winner_source"`
	WinnerReason string         `json:"winner_reason"`
}

// Client is the slice of the Canvas API the resolver needs. Pass a nil
// Client when no credentials are configured; resolution then falls straight
// through to the domain guess.
type Client interface {
	ListAccounts(ctx context.Context) ([]canvas.Account, error)
	GetBrandingTheme(ctx context.Context) (*canvas.BrandTheme, error)
}

// Overrides carries user-set branding from the config file.
type Overrides struct {
	SchoolName string
	LogoURL    string
}

// Resolve determines the branding for the instance at baseURL and reports
// how it got there. It never returns an error: API failures are recorded in
// the report and resolution falls through to the next source.
func Resolve(ctx context.Context, baseURL string, client Client, ov Overrides) (*Info, *ProbeReport) {
	report := &ProbeReport{
		SourceOrder: []string{"override", "api/theme", "domain_guess"},
	}

	if ov.SchoolName != "" || ov.LogoURL != "" {
		report.Attempts = append(report.Attempts,
			ProbeAttempt{
				Endpoint:   "override",
				Needed:     true,
				Outcome:    "selected",
				Detail:     "user override present; API/theme not needed",
				SchoolName: ov.SchoolName,
				LogoURL:    ov.LogoURL,
			},
			ProbeAttempt{
				Endpoint: "GET /api/v1/accounts",
				Outcome:  "skipped",
				Detail:   "skipped due to user override",
			},
			ProbeAttempt{
				Endpoint: "GET /api/v1/accounts/self/theme",
				Outcome:  "skipped",
				Detail:   "skipped due to user override",
			},
		)
		report.WinnerSource = SourceOverride
		report.WinnerReason = "override has highest precedence"
		return &Info{SchoolName: ov.SchoolName, LogoURL: ov.LogoURL, Source: SourceOverride}, report
	}

	var apiSchool, apiLogo string
	if client != nil {
		apiSchool, apiLogo = resolveAPITheme(ctx, client, report)
	}
	if apiSchool != "" || apiLogo != "" {
		report.WinnerSource = SourceAPITheme
		report.WinnerReason = "API/theme provided at least one branding field"
		return &Info{SchoolName: apiSchool, LogoURL: apiLogo, Source: SourceAPITheme}, report
	}

	report.WinnerSource = SourceDomainGuess
	if client == nil {
		report.WinnerReason = "no API client/token available; used domain fallback"
	} else {
		report.WinnerReason = "API/theme unavailable or empty; used domain fallback"
	}
	return &Info{SchoolName: GuessSchoolFromDomain(baseURL), Source: SourceDomainGuess}, report
}

// resolveAPITheme queries the accounts and theme endpoints, appending an
// attempt record for each regardless of outcome.
func resolveAPITheme(ctx context.Context, client Client, report *ProbeReport) (school, logo string) {
	accounts, err := client.ListAccounts(ctx)
	if err != nil {
		outcome, detail := errorOutcome(err)
		report.Attempts = append(report.Attempts, ProbeAttempt{
			Endpoint: "GET /api/v1/accounts",
			Needed:   true,
			Outcome:  outcome,
			Detail:   detail,
		})
	} else {
		if len(accounts) > 0 {
			school = accounts[0].SchoolName()
		}
		report.Attempts = append(report.Attempts, ProbeAttempt{
			Endpoint:   "GET /api/v1/accounts",
			Needed:     true,
			Outcome:    "success",
			Detail:     "account list returned",
			SchoolName: school,
		})
	}

	theme, err := client.GetBrandingTheme(ctx)
	if err != nil {
		outcome, detail := errorOutcome(err)
		report.Attempts = append(report.Attempts, ProbeAttempt{
			Endpoint: "GET /api/v1/accounts/self/theme",
			Needed:   true,
			Outcome:  outcome,
			Detail:   detail,
		})
	} else {
		if theme != nil {
			logo = theme.LogoValue()
		}
		report.Attempts = append(report.Attempts, ProbeAttempt{
			Endpoint: "GET /api/v1/accounts/self/theme",
			Needed:   true,
			Outcome:  "success",
			Detail:   "theme returned",
			LogoURL:  logo,
		})
	}
	return school, logo
}

// GuessSchoolFromDomain derives a display name from the instance hostname.
// Generic labels (www, instructure, com, edu) are dropped; the first
// remaining label is title-cased with separators turned into spaces.
func GuessSchoolFromDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}

	generic := map[string]bool{"www": true, "instructure": true, "com": true, "edu": true}
	var first string
	for _, part := range strings.Split(host, ".") {
		if part != "" && !generic[part] {
			first = part
			break
		}
	}
	if first == "" {
		return ""
	}

	candidate := strings.NewReplacer("-", " ", "_", " ").Replace(first)
	return titleCase(strings.TrimSpace(candidate))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func errorOutcome(err error) (outcome, detail string) {
	var apiErr *canvas.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401:
			return "unauthorized", "401 unauthorized"
		case apiErr.StatusCode == 403:
			return "forbidden", "403 forbidden"
		case apiErr.StatusCode == 404:
			return "not_found", "404 not found"
		case apiErr.IsTimeout():
			return "timeout", "request timed out"
		case apiErr.IsNetwork():
			return "network_error", "network error"
		}
	}
	return "error", err.Error()
}
