package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dossier/pkg/report"
)

var showCmd = &cobra.Command{
	Use:   "show <workspace-id>",
	Short: "Render the analysis report for a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		ws, err := engine.GetWorkspace(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading workspace: %v\n", err)
			os.Exit(1)
		}

		markdown := report.Markdown(ws)
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			fmt.Print(markdown)
			return
		}

		rendered, err := report.Render(markdown)
		if err != nil {
			// Fall back to raw markdown when the terminal cannot be styled.
			fmt.Print(markdown)
			return
		}
		fmt.Print(rendered)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("plain", false, "Print raw markdown without terminal styling")
}
