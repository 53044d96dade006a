package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/dossier/pkg/domain"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new case workspace",
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		id, _ := cmd.Flags().GetString("id")
		user, _ := cmd.Flags().GetString("user")

		ws, err := engine.CreateWorkspace(cmd.Context(), id, domain.Human(user))
		if err != nil {
			fmt.Printf("Error creating workspace: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created workspace %s in state %s\n", ws.ID, ws.CurrentState)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <workspace-id>",
	Short: "Lock or unlock a workspace for human review",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		user, _ := cmd.Flags().GetString("user")
		release, _ := cmd.Flags().GetBool("release")

		if err := engine.SetLock(cmd.Context(), args[0], !release, domain.Human(user)); err != nil {
			fmt.Printf("Error changing lock: %v\n", err)
			os.Exit(1)
		}
		if release {
			fmt.Printf("Workspace %s unlocked\n", args[0])
		} else {
			fmt.Printf("Workspace %s locked\n", args[0])
		}
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <workspace-id> <element-id>",
	Short: "Mark a missing element as resolved",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		engine, cleanup, err := buildEngine(cmd, nil)
		if err != nil {
			fmt.Printf("Error initializing dossier: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		user, _ := cmd.Flags().GetString("user")
		if err := engine.ResolveMissingElement(cmd.Context(), args[0], args[1], domain.Human(user)); err != nil {
			fmt.Printf("Error resolving element: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Element %s resolved\n", args[1])
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().String("id", "", "Workspace ID (generated when empty)")
	newCmd.Flags().String("user", "", "Acting user ID")
	newCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(lockCmd)
	lockCmd.Flags().String("user", "", "Acting user ID")
	lockCmd.Flags().Bool("release", false, "Release the lock instead of taking it")
	lockCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().String("user", "", "Acting user ID")
	resolveCmd.MarkFlagRequired("user")
}
