package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Dossier drives AI-assisted legal case analysis",
	Long: `Dossier runs a fixed eight-stage reasoning pipeline over a case
workspace: facts, legal contexts, obligations, missing information,
risks and proposed actions, ending in a human handoff. Every state
change is recorded in an append-only audit trail.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("redis", "", "Redis address for workspace storage (empty = in-memory)")
	rootCmd.PersistentFlags().String("templates", "", "YAML file overriding the built-in prompt templates")
	rootCmd.PersistentFlags().String("script", "", "JSON file with canned provider responses (demo mode)")
	rootCmd.PersistentFlags().String("model", "", "Gemini model to use")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
