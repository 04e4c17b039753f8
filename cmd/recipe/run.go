package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <recipe>",
	Short: "Execute a recipe from the catalog",
	Long: `Loads the named recipe, binds its steps against the registered
implementations and executes them in order, printing the result value.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		values, _ := cmd.Flags().GetString("values")
		set, _ := cmd.Flags().GetStringArray("set")
		correlationID, _ := cmd.Flags().GetString("correlation-id")
		telemetry, _ := cmd.Flags().GetBool("telemetry")
		watchMode, _ := cmd.Flags().GetBool("watch")
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")

		opts := cli.RunOptions{
			Options:       engineOptions(cmd),
			Recipe:        args[0],
			Values:        values,
			Set:           set,
			CorrelationID: correlationID,
			Telemetry:     telemetry,
			Watch:         watchMode,
			JSON:          jsonMode,
			Quiet:         quiet,
		}

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("values", "", "Initial state values as a JSON object")
	runCmd.Flags().StringArray("set", nil, "Set a single state value (key=value, repeatable)")
	runCmd.Flags().String("correlation-id", "", "Correlation id for the run (generated when empty)")
	runCmd.Flags().Bool("telemetry", false, "Enable observer callbacks for this run")
	runCmd.Flags().BoolP("watch", "w", false, "Rerun the recipe whenever the catalog changes")
	runCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress status messages")
}
