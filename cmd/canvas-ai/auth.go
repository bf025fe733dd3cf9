package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Canvas credentials",
}

var authLoginToken string

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a Canvas API token and switch to token auth",
	Run: func(cmd *cobra.Command, args []string) {
		token := authLoginToken
		if token == "" {
			err := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title("Canvas API token").
					Description("Generate one under Canvas Account > Settings").
					EchoMode(huh.EchoModePassword).
					Value(&token),
			)).Run()
			if err != nil {
				fail(types.WrapInternal(err))
			}
		}
		if token == "" {
			failf(types.CodeValidation, "A token is required.")
		}

		path, err := config.SaveToken(token)
		if err != nil {
			fail(types.WrapInternal(err))
		}
		logEvent("auth login", "token_saved")
		if jsonOutput {
			emit("auth.login", map[string]any{"config_path": path},
				fmt.Sprintf("Canvas token saved to %s", path))
			return
		}
		debug.PrintlnNormal(ui.RenderPass("Canvas token saved to") + " " + path)
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured auth mode, base URL, and token state",
	Run: func(cmd *cobra.Command, args []string) {
		mode := config.AuthMode()
		baseURL := config.CanvasBaseURL()
		if baseURL == "" {
			baseURL = "not configured"
		}
		tokenStatus := config.MaskToken(config.CanvasToken())
		if jsonOutput {
			emit("auth.status", map[string]any{
				"auth_mode": mode,
				"base_url":  baseURL,
				"token":     tokenStatus,
			},
				fmt.Sprintf("Auth mode: %s", mode),
				fmt.Sprintf("Canvas base URL: %s", baseURL),
				fmt.Sprintf("Token: %s", tokenStatus),
			)
			return
		}
		debug.PrintlnNormal("Auth mode: " + ui.RenderAccent(mode))
		debug.PrintlnNormal("Canvas base URL: " + baseURL)
		debug.PrintlnNormal("Token: " + tokenStatus)
	},
}

var authSetModeCmd = &cobra.Command{
	Use:   "set-mode <token|oauth_placeholder>",
	Short: "Switch between token auth and the OAuth placeholder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := args[0]
		if mode != config.AuthModeToken && mode != config.AuthModeOAuth {
			failf(types.CodeValidation, "Mode must be token or oauth_placeholder")
		}
		path, err := config.SetAuthMode(mode)
		if err != nil {
			fail(types.WrapInternal(err))
		}
		logEvent("auth set-mode", mode)
		if jsonOutput {
			emit("auth.set-mode", map[string]any{
				"config_path": path,
				"mode":        mode,
			}, fmt.Sprintf("Auth mode set to %s (%s)", mode, path))
			return
		}
		debug.PrintlnNormal(fmt.Sprintf("Auth mode set to %s (%s)",
			ui.RenderAccent(mode), ui.RenderMuted(path)))
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&authLoginToken, "token", "", "Canvas API token (prompted when omitted)")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authSetModeCmd)
	rootCmd.AddCommand(authCmd)
}
