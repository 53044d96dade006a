package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <workspace-id>",
	Short: "Run the full reasoning pipeline on a workspace",
	Long: `Drives the workspace through every remaining stage toward the human
handoff. The run halts at MISSING_IDENTIFIED when a blocking gap needs
human input; resolve it and run again to continue.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		result, err := engine.ExecuteFullReasoning(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Run failed: %v\n", err)
			os.Exit(1)
		}

		for _, step := range result.Steps {
			fmt.Printf("  %-20s uncertainty %.2f\n", step.State, step.UncertaintyLevel)
		}
		if result.HaltedOnMissing {
			fmt.Printf("Halted at %s: blocking information is missing; see 'dossier show %s'\n",
				result.FinalState, result.WorkspaceID)
			return
		}
		fmt.Printf("Finished at %s\n", result.FinalState)
	},
}

var stepCmd = &cobra.Command{
	Use:   "step <workspace-id>",
	Short: "Advance a workspace by a single stage",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		result, err := engine.ExecuteNextStep(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Step failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Now at %s (uncertainty %.2f, %d new entities)\n",
			result.NewState, result.UncertaintyLevel, result.Data.Count())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stepCmd)
}
