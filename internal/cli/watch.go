package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cloud8421/recipe"
	"github.com/cloud8421/recipe/internal/presentation/tui"
)

// RunWatch executes a recipe in development mode, rerunning it whenever
// the catalog changes on disk.
func RunWatch(opts RunOptions) {
	logger := NewLogger(opts.Debug)
	tui.PrintBanner(recipe.Version)

	logger.Info("Starting Watcher", "path", opts.CatalogDir, "recipe", opts.Recipe)
	printSystemMessage("Watching '%s'. Press Ctrl+C to stop.", opts.CatalogDir)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	for {
		if !runWatchIteration(sigCtx, opts, logger) {
			break
		}
		logger.Info("Watcher restarting")
	}

	// Ensure we exit cleanly
	os.Exit(0)
}

// runWatchIteration runs the recipe once and waits for a catalog change.
// Returning false stops the outer loop. The runtime is rebuilt every
// iteration so steps.yaml edits are picked up alongside manifest edits.
func runWatchIteration(parentCtx *SignalContext, opts RunOptions, logger *slog.Logger) bool {
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	rt, err := CreateRuntime(opts.Options, logger)
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		select {
		case <-parentCtx.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}
	defer rt.Close()

	events, err := rt.Engine.Watch(ctx)
	if err != nil {
		printSystemMessage("Catalog does not support watching, running once.")
		out := runOnce(ctx, rt, opts)
		printOutcome(out, opts)
		return false
	}

	out := runOnce(ctx, rt, opts)
	printOutcome(out, opts)

	select {
	case <-parentCtx.Done():
		return false
	case _, ok := <-events:
		if !ok {
			return false
		}
		printSystemMessage("Catalog changed, rerunning '%s'...", opts.Recipe)
		return true
	}
}
