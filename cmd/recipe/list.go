package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recipes in the catalog",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runList(cmd); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print manifests as JSON")
}

func runList(cmd *cobra.Command) error {
	opts := engineOptions(cmd)
	rt, err := cli.CreateRuntime(opts, cli.NewLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer rt.Close()

	manifests, err := rt.Engine.Recipes(cmd.Context())
	if err != nil {
		return err
	}

	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		data, err := json.MarshalIndent(manifests, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(manifests) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	fmt.Println("Recipes:")
	for _, m := range manifests {
		label := m.Name
		if m.Title != "" {
			label = fmt.Sprintf("%s (%s)", m.Name, m.Title)
		}
		fmt.Printf("- %s [%d steps]\n", label, len(m.Steps))
	}
	return nil
}
