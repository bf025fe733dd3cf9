package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/org"
	"github.com/canvasai/canvas-ai/internal/types"
)

var (
	orgSchoolName string
	orgLogoURL    string
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Resolve and override institution branding",
}

var orgInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved school name and logo",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := resolveBranding()
		emit("org.info", map[string]any{
			"logo_url":    info.LogoURL,
			"school_name": info.SchoolName,
			"source":      info.Source,
		},
			fmt.Sprintf("School name: %s", orLabel(info.SchoolName, "Unknown (fallback used)")),
			fmt.Sprintf("Logo URL: %s", orLabel(info.LogoURL, "Unavailable")),
			fmt.Sprintf("Source: %s", info.Source))
	},
}

var orgSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Pin branding overrides in the config file",
	Run: func(cmd *cobra.Command, args []string) {
		var schoolPtr, logoPtr *string
		if cmd.Flags().Changed("school-name") {
			schoolPtr = &orgSchoolName
		}
		if cmd.Flags().Changed("logo-url") {
			logoPtr = &orgLogoURL
		}
		if schoolPtr == nil && logoPtr == nil {
			failf(types.CodeValidation, "Provide --school-name and/or --logo-url")
		}

		path, err := config.SetBranding(schoolPtr, logoPtr)
		if err != nil {
			fail(types.WrapInternal(err))
		}
		logEvent("org set", fmt.Sprintf("school_name=%t,logo_url=%t",
			schoolPtr != nil && *schoolPtr != "", logoPtr != nil && *logoPtr != ""))
		emit("org.set", map[string]any{"config_path": path},
			fmt.Sprintf("Branding overrides saved to %s", path))
	},
}

var orgProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Trace every branding source and explain the winner",
	Run: func(cmd *cobra.Command, args []string) {
		info, report := resolveBranding()
		lines := []string{
			fmt.Sprintf("Source order: %s", strings.Join(report.SourceOrder, " > ")),
			fmt.Sprintf("Winner: %s", report.WinnerSource),
			fmt.Sprintf("Reason: %s", report.WinnerReason),
			fmt.Sprintf("School name: %s", orLabel(info.SchoolName, "Unknown (fallback used)")),
			fmt.Sprintf("Logo URL: %s", orLabel(info.LogoURL, "Unavailable")),
		}
		if verboseFlag {
			lines = append(lines, "Attempt details:")
			for _, attempt := range report.Attempts {
				needed := "not-needed"
				if attempt.Needed {
					needed = "needed"
				}
				lines = append(lines, fmt.Sprintf("- %s: %s (%s) - %s",
					attempt.Endpoint, attempt.Outcome, needed, attempt.Detail))
			}
		}
		emit("org.probe", map[string]any{
			"logo_url":    info.LogoURL,
			"reason":      report.WinnerReason,
			"school_name": info.SchoolName,
			"winner":      report.WinnerSource,
		}, lines...)
	},
}

// resolveBranding runs the override > api/theme > domain_guess chain. A
// client is wired in only when a token exists; without one the resolver
// skips straight past the API sources.
func resolveBranding() (*org.Info, *org.ProbeReport) {
	baseURL := config.CanvasBaseURL()
	if baseURL == "" {
		failf(types.CodeValidation, "Missing CANVAS_BASE_URL.")
	}

	var client org.Client
	if token := config.CanvasToken(); token != "" {
		client = canvas.NewClient(baseURL, token)
	}

	school, logo := config.BrandingOverrides()
	return org.Resolve(rootCtx, baseURL, client, org.Overrides{SchoolName: school, LogoURL: logo})
}

func orLabel(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func init() {
	orgSetCmd.Flags().StringVar(&orgSchoolName, "school-name", "", "Override the school name")
	orgSetCmd.Flags().StringVar(&orgLogoURL, "logo-url", "", "Override the logo URL")

	orgCmd.AddCommand(orgInfoCmd)
	orgCmd.AddCommand(orgSetCmd)
	orgCmd.AddCommand(orgProbeCmd)
	rootCmd.AddCommand(orgCmd)
}
