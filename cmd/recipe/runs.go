package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
	"github.com/cloud8421/recipe/pkg/ports"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs",
	Long:  `List, inspect, and remove run records from the configured store.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	Run: func(cmd *cobra.Command, args []string) {
		store, closer := getStore(cmd)
		defer closeStore(closer)

		records, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing runs: %v\n", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return
		}

		fmt.Println("Recorded Runs:")
		for _, rec := range records {
			fmt.Printf("- %s  %-9s  %s  %s\n",
				rec.CorrelationID, rec.Status, rec.Recipe,
				rec.FinishedAt.Format(time.RFC3339))
		}
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect <correlation-id>",
	Short: "Inspect a recorded run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		correlationID := args[0]
		store, closer := getStore(cmd)
		defer closeStore(closer)

		rec, err := store.Load(cmd.Context(), correlationID)
		if err != nil {
			fmt.Printf("Error loading run '%s': %v\n", correlationID, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling run: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <correlation-id>...",
	Short: "Remove one or more run records",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		store, closer := getStore(cmd)
		defer closeStore(closer)

		if all, _ := cmd.Flags().GetBool("all"); all {
			records, err := store.List(cmd.Context())
			if err != nil {
				fmt.Printf("Error listing runs: %v\n", err)
				os.Exit(1)
			}
			for _, rec := range records {
				args = append(args, rec.CorrelationID)
			}
		}

		hasError := false
		for _, correlationID := range args {
			if err := store.Delete(cmd.Context(), correlationID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", correlationID, err)
				hasError = true
			} else {
				fmt.Printf("Removed run '%s'\n", correlationID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd)
	runsCmd.AddCommand(runsInspectCmd)
	runsCmd.AddCommand(runsRmCmd)

	runsRmCmd.Flags().Bool("all", false, "Remove every recorded run")
}

func getStore(cmd *cobra.Command) (ports.RunStore, io.Closer) {
	store, closer, err := cli.OpenStore(engineOptions(cmd))
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	if store == nil {
		fmt.Println("No run store configured (see --store).")
		os.Exit(1)
	}
	return store, closer
}

func closeStore(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
