package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	canvasai "github.com/canvasai/canvas-ai"
	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/storage/sqlite"
	"github.com/canvasai/canvas-ai/internal/telemetry"
	"github.com/canvasai/canvas-ai/internal/types"
)

var (
	dbPath     string
	jsonOutput bool
	store      storage.Store

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
)

func init() {
	// Initialize viper configuration
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run-ledger database path (default: ~/.local/share/canvas-ai/history.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output a machine-readable JSON envelope")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
}

var rootCmd = &cobra.Command{
	Use:   "canvas-ai",
	Short: "canvas-ai - Canvas coursework assistant",
	Long: `Plan, draft, and review Canvas coursework from the terminal.

Workflow runs stop at a human-review gate. Nothing is submitted to Canvas
without an explicit --confirm plus a short-lived token from a prior review.`,
	Run: func(cmd *cobra.Command, args []string) {
		// No subcommand - show help
		_ = cmd.Help()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

// PersistentPreRun is attached here instead of in the literal above: its
// needsStore reference would otherwise form an initialization cycle with
// rootCmd. Hooks only fire from Execute, long after package init.
func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()

		if !needsStore(cmd) {
			return
		}

		if err := telemetry.Init(rootCtx, "canvas-ai", canvasai.Version); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry init failed: %v\n", err)
		}
		openStore()
	}
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyVerbosityFlags propagates --verbose and --quiet to the debug package
// so all subsequent output respects the user's preference.
func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
}

// needsStore reports whether the command touches the run ledger. Help-style
// commands skip the database entirely so they work before first init.
func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return cmd != rootCmd
}

// openStore resolves the ledger path and opens SQLite. Resolution order:
// --db flag, then CANVAS_AI_DB, then ~/.local/share/canvas-ai/history.db.
func openStore() {
	path := dbPath
	if path == "" {
		var err error
		path, err = config.DefaultDBPath()
		if err != nil {
			FatalError("resolving database path: %v", err)
		}
	}

	s, err := sqlite.New(rootCtx, path)
	if err != nil {
		FatalError("opening database at %s: %v", path, err)
	}
	store = telemetry.WrapStore(s)
}

// shutdown releases the store and flushes telemetry. Fatal error paths call
// it directly before exiting, so it tolerates repeat calls.
func shutdown() {
	if store != nil {
		_ = store.Close()
		store = nil
	}
	telemetry.Shutdown(context.Background())
	if rootCancel != nil {
		rootCancel()
	}
}

// getClient builds a Canvas API client from config, enforcing the auth
// preconditions shared by every networked command.
func getClient() (*canvas.Client, error) {
	if config.AuthMode() == config.AuthModeOAuth && config.CanvasToken() == "" {
		return nil, types.NewCLIError(types.CodeAuth,
			"Auth mode is oauth_placeholder; switch to token mode and login for now.")
	}
	baseURL := config.CanvasBaseURL()
	token := config.CanvasToken()
	if baseURL == "" || token == "" {
		return nil, types.NewCLIError(types.CodeValidation,
			"Missing CANVAS_BASE_URL and/or CANVAS_API_TOKEN. Run `canvas-ai auth login`.")
	}
	return canvas.NewClient(baseURL, token), nil
}

// logEvent appends one entry to the local action log. Logging never fails a
// command; problems surface only in verbose mode.
func logEvent(command, payload string) {
	if store == nil {
		return
	}
	if err := store.AppendEvent(rootCtx, command, payload); err != nil {
		debug.Logf("append event: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
