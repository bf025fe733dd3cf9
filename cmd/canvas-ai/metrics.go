package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canvasai/canvas-ai/internal/types"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Usage metrics derived from the run ledger",
}

var metricsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize run outcomes and common error codes",
	Run: func(cmd *cobra.Command, args []string) {
		summary, err := store.MetricsSummary(rootCtx)
		if err != nil {
			fail(types.WrapInternal(err))
		}
		emit("metrics.summary", summary,
			fmt.Sprintf("Total runs: %d", summary.TotalRuns),
			fmt.Sprintf("Success: %d Failed: %d", summary.SuccessRuns, summary.FailedRuns))
	},
}

func init() {
	metricsCmd.AddCommand(metricsSummaryCmd)
	rootCmd.AddCommand(metricsCmd)
}
