package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/ui"
)

var (
	initBaseURL          string
	initToken            string
	initWriteTemplates   bool
	initNoWriteTemplates bool
	initNonInteractive   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and starter policy template",
	Long: `Set up ~/.config/canvas-ai: the config.json holding your Canvas base URL
and token, plus a starter policy.json locked to dry-run submissions.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, err := config.LoadFile()
		if err != nil {
			fail(err)
		}
		if initBaseURL != "" {
			file.CanvasBaseURL = initBaseURL
		}
		if initToken != "" {
			setFileToken(file, initToken)
		}

		if !initNonInteractive && ui.IsTerminal() {
			if err := promptMissingSettings(file); err != nil {
				fail(types.WrapInternal(err))
			}
		}

		configPath, err := file.Save()
		if err != nil {
			fail(types.WrapInternal(err))
		}

		templates := []string{}
		if initWriteTemplates && !initNoWriteTemplates {
			path, err := writePolicyTemplate()
			if err != nil {
				fail(types.WrapInternal(err))
			}
			templates = append(templates, path)
		}

		lines := []string{fmt.Sprintf("Initialized config at %s", configPath)}
		for _, t := range templates {
			lines = append(lines, fmt.Sprintf("Template: %s", t))
		}
		emit("init", map[string]any{
			"config_path": configPath,
			"templates":   templates,
		}, lines...)
	},
}

func setFileToken(file *config.File, token string) {
	file.CanvasAPIToken = token
	if file.Auth == nil {
		file.Auth = &config.AuthConfig{}
	}
	file.Auth.Mode = config.AuthModeToken
	file.Auth.Token = token
}

// promptMissingSettings asks for whichever of base URL and token the flags
// and existing config did not provide. Leaving the token blank keeps the
// config untouched.
func promptMissingSettings(file *config.File) error {
	var fields []huh.Field
	baseURL := "https://canvas.instructure.com"
	token := ""

	if file.CanvasBaseURL == "" {
		fields = append(fields, huh.NewInput().
			Title("Canvas base URL").
			Description("Your institution's Canvas address").
			Placeholder("https://school.instructure.com").
			Value(&baseURL))
	}
	hasToken := file.Auth != nil && file.Auth.Token != ""
	if !hasToken {
		fields = append(fields, huh.NewInput().
			Title("Canvas API token (optional)").
			Description("Generate one under Canvas Account > Settings").
			EchoMode(huh.EchoModePassword).
			Value(&token))
	}
	if len(fields) == 0 {
		return nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}
	if file.CanvasBaseURL == "" && baseURL != "" {
		file.CanvasBaseURL = baseURL
	}
	if token != "" {
		setFileToken(file, token)
	}
	return nil
}

// writePolicyTemplate writes the starter policy.json: every mode allowed but
// dry-run only, with a 10 minute cap on review-token age.
func writePolicyTemplate() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, err := config.PolicyPath("json")
	if err != nil {
		return "", err
	}

	template := map[string]any{
		"default": map[string]any{
			"allowed_modes":                types.AllModes(),
			"dry_run_only":                 true,
			"max_review_token_age_minutes": 10,
		},
		"courses": map[string]any{},
	}
	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "", "Canvas instance base URL")
	initCmd.Flags().StringVar(&initToken, "token", "", "Canvas API token (switches auth mode to token)")
	initCmd.Flags().BoolVar(&initWriteTemplates, "write-templates", true, "Write the starter policy.json template")
	initCmd.Flags().BoolVar(&initNoWriteTemplates, "no-write-templates", false, "Skip writing templates")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "Never prompt; use flags and existing config only")
	rootCmd.AddCommand(initCmd)
}
