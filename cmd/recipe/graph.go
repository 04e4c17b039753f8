package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
	"github.com/cloud8421/recipe/internal/presentation/graph"
	"github.com/cloud8421/recipe/pkg/domain"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <recipe>",
	Short: "Export the recipe flow visualization",
	Long: `Inspects a recipe and outputs a Mermaid diagram (graph TD)
representing the step chain. With --run, the outcome of a recorded run
is overlaid on the chain.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGraph(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Correlation id of a recorded run to overlay")
}

func runGraph(cmd *cobra.Command, name string) error {
	opts := engineOptions(cmd)
	rt, err := cli.CreateRuntime(opts, cli.NewLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()

	m, err := rt.Engine.Recipe(ctx, name)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		if rt.Store == nil {
			return fmt.Errorf("no run store configured (see --store)")
		}
		rec, err := rt.Store.Load(ctx, runID)
		if err != nil {
			return fmt.Errorf("error loading run %q: %w", runID, err)
		}
		overlay = buildOverlay(m, rec)
	}

	fmt.Print(graph.GenerateMermaid(m, overlay))
	return nil
}

// buildOverlay marks the steps the recorded run got through. On failure
// the failed step stops the walk; everything before it completed.
func buildOverlay(m *domain.Manifest, rec *domain.RunRecord) *graph.Overlay {
	overlay := &graph.Overlay{FailedStep: rec.FailedStep}
	for _, step := range m.Steps {
		if rec.Status == domain.RunFailed && step == rec.FailedStep {
			break
		}
		overlay.CompletedSteps = append(overlay.CompletedSteps, step)
	}
	return overlay
}
