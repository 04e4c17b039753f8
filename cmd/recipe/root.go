package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Recipe is a step based task execution engine",
	Long: `Recipe executes named step sequences against a shared state, with
exactly one terminal outcome per run. Recipes are declared as Markdown
manifests in a catalog directory; step implementations come from a
steps.yaml command catalog or from code.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the recipe catalog")
	rootCmd.PersistentFlags().String("steps", "", "Path to the steps command catalog (default <dir>/steps.yaml)")
	rootCmd.PersistentFlags().String("store", "file", "Run store backend: none, memory, file, sqlite or redis")
	rootCmd.PersistentFlags().String("store-path", "", "Path for the file or sqlite store (default under <dir>/.recipe)")
	rootCmd.PersistentFlags().String("redis-url", "redis://localhost:6379/0", "Redis URL for the redis store")
	rootCmd.PersistentFlags().String("store-key", "", "Base64 AES-256 key encrypting stored run values")
	rootCmd.PersistentFlags().StringSlice("redact", nil, "Mask stored run values whose keys match these patterns")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// engineOptions collects the persistent engine flags for a command.
func engineOptions(cmd *cobra.Command) cli.Options {
	dir, _ := cmd.Flags().GetString("dir")
	steps, _ := cmd.Flags().GetString("steps")
	store, _ := cmd.Flags().GetString("store")
	storePath, _ := cmd.Flags().GetString("store-path")
	redisURL, _ := cmd.Flags().GetString("redis-url")
	storeKey, _ := cmd.Flags().GetString("store-key")
	redact, _ := cmd.Flags().GetStringSlice("redact")
	debug, _ := cmd.Flags().GetBool("debug")

	return cli.Options{
		CatalogDir: dir,
		StepsPath:  steps,
		Store:      store,
		StorePath:  storePath,
		RedisURL:   redisURL,
		StoreKey:   storeKey,
		Redact:     redact,
		Debug:      debug,
	}
}
