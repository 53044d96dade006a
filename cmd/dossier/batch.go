package main

import (
	"fmt"
	"os"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aretw0/dossier/internal/logging"
	redisAdapter "github.com/aretw0/dossier/pkg/adapters/redis"
	"github.com/aretw0/dossier/pkg/runner"
)

var batchCmd = &cobra.Command{
	Use:   "batch <workspace-id>...",
	Short: "Run the full reasoning pipeline over several workspaces",
	Long: `Runs full reasoning on every listed workspace with bounded
concurrency. With --redis, each run holds a distributed per-workspace
lock so replicas processing overlapping batches never drive the same
workspace at once.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		logger := logging.New(logging.ParseLevel(flagString(cmd, "log-level")))
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		var opts []runner.Option
		if addr := flagString(cmd, "redis"); addr != "" {
			locker, closeLocker := buildRunnerLocker(addr)
			defer closeLocker()
			opts = append(opts, runner.WithLocker(locker))
		}

		batch := runner.New(engine, concurrency, logger, opts...)
		outcomes := batch.Run(cmd.Context(), args)

		failures := 0
		for _, outcome := range outcomes {
			switch {
			case outcome.Err != nil:
				failures++
				fmt.Printf("  %-24s FAILED: %v\n", outcome.WorkspaceID, outcome.Err)
			case outcome.HaltedOnMissing:
				fmt.Printf("  %-24s halted at %s (missing information)\n", outcome.WorkspaceID, outcome.FinalState)
			default:
				fmt.Printf("  %-24s %s\n", outcome.WorkspaceID, outcome.FinalState)
			}
		}
		if failures > 0 {
			fmt.Printf("%d of %d workspaces failed\n", failures, len(outcomes))
			os.Exit(1)
		}
	},
}

// buildRunnerLocker creates a Redis-backed runner locker with its own
// client; the engine's store client stays private to the store.
func buildRunnerLocker(addr string) (*redisAdapter.Locker, func()) {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: os.Getenv("DOSSIER_REDIS_PASSWORD"),
	})
	locker := redisAdapter.NewLocker(client, "dossier:workspace:")
	return locker, func() {
		_ = client.Close()
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Int("concurrency", 4, "Number of workspaces processed in parallel")
}
