package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of recipe",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("recipe version %s\n", strings.TrimSpace(recipe.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
