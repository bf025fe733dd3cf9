package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/config"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/types"
	"github.com/canvasai/canvas-ai/internal/ui"
)

// followDebounce coalesces bursts of database writes into one refresh.
const followDebounce = 500 * time.Millisecond

var (
	runsTailLimit  int
	runsTailFollow bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID := args[0]
		run, err := store.GetRun(rootCtx, runID)
		if errors.Is(err, storage.ErrNotFound) {
			failf(types.CodeNotFound, "Run not found: %s", runID)
		}
		if err != nil {
			fail(types.WrapInternal(err))
		}
		emit("runs.show", map[string]any{"run": run},
			fmt.Sprintf("Run %s: %s (%s)", run.ID, run.Status, run.Command))
	},
}

var runsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "List the most recent runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		if runsTailLimit < 1 || runsTailLimit > 200 {
			failf(types.CodeValidation, "--limit must be between 1 and 200.")
		}
		if runsTailFollow {
			if jsonOutput {
				failf(types.CodeValidation, "--follow cannot be combined with --json.")
			}
			followRuns(runsTailLimit)
			return
		}

		runs, lines := tailRuns(runsTailLimit)
		emit("runs.tail", map[string]any{"runs": runs}, lines...)
	},
}

func tailRuns(limit int) ([]*types.Run, []string) {
	runs, err := store.ListRuns(rootCtx, limit)
	if err != nil {
		fail(types.WrapInternal(err))
	}
	if runs == nil {
		runs = []*types.Run{}
	}
	lines := make([]string, 0, len(runs))
	for _, r := range runs {
		lines = append(lines, fmt.Sprintf("%s %s %s", r.ID, r.Status, r.Command))
	}
	if len(lines) == 0 {
		lines = []string{"No runs found."}
	}
	return runs, lines
}

// followRuns re-renders the tail whenever the ledger database changes.
// Human mode only; Ctrl+C stops the watch.
func followRuns(limit int) {
	path := dbPath
	if path == "" {
		var err error
		path, err = config.DefaultDBPath()
		if err != nil {
			fail(types.WrapInternal(err))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fail(types.WrapInternal(err))
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		fail(types.WrapInternal(err))
	}

	runs, err := store.ListRuns(rootCtx, limit)
	if err != nil {
		fail(types.WrapInternal(err))
	}
	printFollowSnapshot(runs)

	// SQLite writes touch the main file plus its -wal/-shm siblings.
	base := filepath.Base(path)
	var debounce *time.Timer
	for {
		select {
		case <-rootCtx.Done():
			fmt.Fprintln(os.Stderr, "\nStopped watching.")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) && strings.HasPrefix(filepath.Base(event.Name), base) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(followDebounce, func() {
					refreshRuns(limit)
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		}
	}
}

// refreshRuns is the lenient re-render used while following: a transient
// read failure is reported and the watch continues.
func refreshRuns(limit int) {
	runs, err := store.ListRuns(rootCtx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refresh error: %v\n", err)
		return
	}
	debug.PrintlnNormal()
	printFollowSnapshot(runs)
}

// printFollowSnapshot renders the styled live view. Plain envelope lines are
// reserved for the one-shot tail; the watch display gets icons and color.
func printFollowSnapshot(runs []*types.Run) {
	debug.PrintlnNormal(ui.RenderCategory("recent runs"))
	debug.PrintlnNormal(ui.RenderSeparator())
	if len(runs) == 0 {
		debug.PrintlnNormal("No runs found.")
	}
	for _, r := range runs {
		debug.PrintlnNormal(fmt.Sprintf("%s %s %s %s",
			ui.StatusIcon(r.Status), r.ID, ui.RenderStatus(r.Status), r.Command))
	}
	fmt.Fprintln(os.Stderr, "\n"+ui.RenderMuted("Watching for changes... (Press Ctrl+C to exit)"))
}

func init() {
	runsTailCmd.Flags().IntVar(&runsTailLimit, "limit", 10, "Number of runs to list (1-200)")
	runsTailCmd.Flags().BoolVar(&runsTailFollow, "follow", false, "Keep watching and re-render on ledger changes (human mode only)")
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsTailCmd)
	rootCmd.AddCommand(runsCmd)
}
