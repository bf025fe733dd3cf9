package main

import (
	"github.com/spf13/cobra"

	canvasai "github.com/canvasai/canvas-ai"
)

// commandCapability describes one CLI command for agent planners: how risky
// it is and which permissions it exercises.
type commandCapability struct {
	ConfirmationRequired bool     `json:"confirmation_required"`
	Name                 string   `json:"name"`
	Permissions          []string `json:"permissions"`
	Risk                 string   `json:"risk"`
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Contracts for agents driving this CLI",
}

// capabilityMatrix is the published risk/permission contract. submit is the
// only entry requiring confirmation; everything else is read or local-only.
func capabilityMatrix() []commandCapability {
	return []commandCapability{
		{Name: "plan", Risk: "low", ConfirmationRequired: false, Permissions: []string{"canvas:read"}},
		{Name: "execute", Risk: "medium", ConfirmationRequired: false, Permissions: []string{"local:state"}},
		{Name: "review", Risk: "medium", ConfirmationRequired: false, Permissions: []string{"canvas:read", "local:state"}},
		{Name: "do", Risk: "medium", ConfirmationRequired: false, Permissions: []string{"canvas:read", "local:state", "local:artifacts"}},
		{Name: "submit", Risk: "high", ConfirmationRequired: true, Permissions: []string{"canvas:write", "local:state"}},
		{Name: "runs.show", Risk: "low", ConfirmationRequired: false, Permissions: []string{"local:state"}},
		{Name: "runs.tail", Risk: "low", ConfirmationRequired: false, Permissions: []string{"local:state"}},
	}
}

var agentCapabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List command risk levels and required permissions",
	Run: func(cmd *cobra.Command, args []string) {
		emit("agent.capabilities", map[string]any{"commands": capabilityMatrix()},
			"Use --json for machine-readable capabilities.")
	},
}

var agentFeatureContractCmd = &cobra.Command{
	Use:   "feature-contract",
	Short: "Show the feature synchronization contract",
	Run: func(cmd *cobra.Command, args []string) {
		contract := map[string]any{
			"feature_contract_version": canvasai.FeatureContractVersion,
			"policy":                   "feature_sync_required",
			"requirements": []string{
				"Every feature change must update CLI behavior and/or command surface.",
				"Every feature change must update MCP server tool surface or mapping.",
				"Every feature change must update docs (command reference + relevant guides).",
				"Feature PRs should include verification evidence for CLI + MCP + docs coherence.",
			},
			"schema_version": canvasai.SchemaVersion,
		}
		emit("agent.feature-contract", contract,
			"Feature contract:",
			"- Update CLI",
			"- Update MCP",
			"- Update docs",
			"- Include verification evidence")
	},
}

func init() {
	agentCmd.AddCommand(agentCapabilitiesCmd)
	agentCmd.AddCommand(agentFeatureContractCmd)
	rootCmd.AddCommand(agentCmd)
}
