package main

import (
	"fmt"

	"github.com/spf13/cobra"

	canvasai "github.com/canvasai/canvas-ai"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and wire-contract information",
	Run: func(cmd *cobra.Command, args []string) {
		emit("version", map[string]any{
			"feature_contract_version": canvasai.FeatureContractVersion,
			"schema_version":           canvasai.SchemaVersion,
			"version":                  canvasai.Version,
		}, fmt.Sprintf("canvas-ai %s (schema %s)", canvasai.Version, canvasai.SchemaVersion))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
