package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/canvas"
	"github.com/canvasai/canvas-ai/internal/debug"
	"github.com/canvasai/canvas-ai/internal/policy"
	"github.com/canvasai/canvas-ai/internal/storage"
	"github.com/canvasai/canvas-ai/internal/submit"
	"github.com/canvasai/canvas-ai/internal/types"
)

var (
	submitFile           string
	submitConfirm        bool
	submitConfirmToken   string
	submitIdempotencyKey string
	submitDryRun         bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <assignment-id|run-id>",
	Short: "Submit a file for an assignment (guarded, two-phase)",
	Long: `The one write-back command. It refuses to run without --confirm and a
token from a prior review; tokens are single-use and short-lived. Repeat
calls with the same idempotency key replay the recorded result instead of
submitting twice. Use --dry-run to exercise the full gate without the
write.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID := resolveSubmitTarget(args[0])

		if _, err := os.Stat(submitFile); err != nil {
			failf(types.CodeValidation, "File not found: %s", submitFile)
		}

		// Course lookup is best effort: submission must still be possible
		// when the assignment endpoint is down, with the default policy
		// rule applying.
		var (
			courseID int64
			writer   submit.Writer
		)
		client, clientErr := getClient()
		if clientErr != nil {
			writer = errWriter{err: clientErr}
		} else {
			writer = client
			if a, err := client.GetAssignment(rootCtx, assignmentID); err == nil {
				courseID = a.CourseID
			} else {
				debug.Logf("submit: assignment lookup failed, default policy rule applies: %v\n", err)
			}
		}

		pol, err := policy.Load()
		if err != nil {
			fail(err)
		}

		gate := submit.NewGate(store, writer, submit.WithPolicy(pol))
		outcome, err := gate.Submit(rootCtx, submit.Request{
			AssignmentID:   assignmentID,
			CourseID:       courseID,
			File:           submitFile,
			Confirm:        submitConfirm,
			ConfirmToken:   submitConfirmToken,
			IdempotencyKey: submitIdempotencyKey,
			DryRun:         submitDryRun,
		})
		if err != nil {
			fail(err)
		}

		result := map[string]any{"replayed": outcome.Replayed}
		for k, v := range outcome.Result {
			result[k] = v
		}

		if outcome.Replayed {
			emit("submit", result, "Idempotency replay: returning previous submission result.")
			return
		}

		logEvent("submit", fmt.Sprintf("id=%d,file=%s,idempotency_key=%s,dry_run=%t",
			assignmentID, submitFile, outcome.Key, submitDryRun))
		emit("submit", result, fmt.Sprintf("Submission result: %s", compactJSON(outcome.Result)))
	},
}

// resolveSubmitTarget maps the positional target onto an assignment id. An
// unknown or non-workflow run_ target resolves to assignment 0 rather than
// failing here: the gate's fixed refusal order still applies (confirmation
// first, replay next), and the token check then rejects the mismatch.
func resolveSubmitTarget(target string) int64 {
	if strings.HasPrefix(target, "run_") {
		run, err := store.GetRun(rootCtx, target)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && run.Command != "do") {
			debug.Logf("submit: target %s is not a known workflow run\n", target)
			return 0
		}
		if err != nil {
			fail(types.WrapInternal(err))
		}
		return run.AssignmentID
	}

	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		failf(types.CodeValidation, "Invalid target %q: expected an assignment id or run_ id.", target)
	}
	return id
}

// errWriter defers a client construction failure until the gate actually
// performs the write, so dry runs and ledger replays work without
// credentials.
type errWriter struct{ err error }

func (w errWriter) SubmitAssignment(ctx context.Context, assignmentID int64, filePath string) (*canvas.SubmissionStub, error) {
	return nil, w.err
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func init() {
	submitCmd.Flags().StringVar(&submitFile, "file", "", "File to submit (required)")
	submitCmd.Flags().BoolVar(&submitConfirm, "confirm", false, "Required to execute submission")
	submitCmd.Flags().StringVar(&submitConfirmToken, "confirm-token", "", "Token from a prior review")
	submitCmd.Flags().StringVar(&submitIdempotencyKey, "idempotency-key", "", "Caller-chosen replay key (derived from assignment and file when omitted)")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Run every gate check but skip the write")
	_ = submitCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(submitCmd)
}
