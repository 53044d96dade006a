package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dossier/pkg/domain"
	"github.com/aretw0/dossier/pkg/report"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create a workspace and run the whole pipeline in one process",
	Long: `Creates a fresh workspace, runs full reasoning against the configured
provider and prints the resulting analysis report. With --script this
works entirely offline.`,
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		ws, err := engine.CreateWorkspace(cmd.Context(), "", domain.Human("demo"))
		if err != nil {
			fmt.Printf("Error creating workspace: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created workspace %s\n", ws.ID)

		result, err := engine.ExecuteFullReasoning(cmd.Context(), ws.ID)
		if err != nil {
			fmt.Printf("Run failed: %v\n", err)
			os.Exit(1)
		}
		for _, step := range result.Steps {
			fmt.Printf("  %-20s uncertainty %.2f\n", step.State, step.UncertaintyLevel)
		}

		final, err := engine.GetWorkspace(cmd.Context(), ws.ID)
		if err != nil {
			fmt.Printf("Error loading workspace: %v\n", err)
			os.Exit(1)
		}
		rendered, err := report.Render(report.Markdown(final))
		if err != nil {
			fmt.Print(report.Markdown(final))
			return
		}
		fmt.Print(rendered)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
