package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloud8421/recipe/internal/cli"
	"github.com/cloud8421/recipe/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate [recipe]",
	Short: "Check catalog recipes against the step registry",
	Long: `Binds each manifest against the registered step implementations and
reports declared names without one. With no argument, the whole catalog
is checked.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	opts := engineOptions(cmd)
	rt, err := cli.CreateRuntime(opts, cli.NewLogger(opts.Debug))
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()

	var manifests []*domain.Manifest
	if len(args) == 1 {
		m, err := rt.Engine.Recipe(ctx, args[0])
		if err != nil {
			return err
		}
		manifests = []*domain.Manifest{m}
	} else {
		manifests, err = rt.Engine.Recipes(ctx)
		if err != nil {
			return err
		}
	}

	valid := true
	for _, m := range manifests {
		if _, err := rt.Engine.Registry().Bind(m); err != nil {
			valid = false
			var missing *domain.MissingStepsError
			if errors.As(err, &missing) {
				fmt.Printf("%s: missing steps: %s\n", m.Name, strings.Join(missing.Steps, ", "))
			} else {
				fmt.Printf("%s: %v\n", m.Name, err)
			}
			continue
		}
		fmt.Printf("%s: ok\n", m.Name)
	}

	if !valid {
		return fmt.Errorf("some recipes cannot run with the registered steps")
	}
	fmt.Println("All recipes are valid! ✅")
	return nil
}
