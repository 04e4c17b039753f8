package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
	"github.com/cloud8421/recipe/internal/presentation/tui"
)

var describeCmd = &cobra.Command{
	Use:   "describe <recipe>",
	Short: "Show a recipe's steps and description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDescribe(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, name string) error {
	opts := engineOptions(cmd)
	rt, err := cli.CreateRuntime(opts, cli.NewLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := rt.Engine.Recipe(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Printf("Recipe: %s\n", m.Name)
	if m.Title != "" {
		fmt.Printf("Title: %s\n", m.Title)
	}
	fmt.Printf("Steps: %s\n", strings.Join(m.Steps, " -> "))
	if m.Result != "" {
		fmt.Printf("Result: %s\n", m.Result)
	}
	if len(m.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	if m.Telemetry {
		fmt.Println("Telemetry: enabled")
	}

	if m.Description != "" {
		render := tui.NewRenderer()
		out, err := render(m.Description)
		if err != nil {
			// Fall back to the raw markdown.
			fmt.Printf("\n%s\n", m.Description)
			return nil
		}
		fmt.Print(out)
	}
	return nil
}
