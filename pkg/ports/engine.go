package ports

import (
	"context"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Runner is the run surface driven by adapters (HTTP, MCP, CLI). It is
// implemented by the top-level recipe.Engine.
type Runner interface {
	// Run executes a definition over an initial state, producing exactly
	// one terminal outcome: on success the value of the definition's
	// HandleResult, on the first step failure the value of its
	// HandleError, verbatim.
	Run(ctx context.Context, def domain.Definition, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error)

	// RunNamed loads a manifest from the catalog, binds its steps
	// against the registered implementations and runs it.
	RunNamed(ctx context.Context, name string, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error)

	// Validate gates a definition ahead of any run. Malformed
	// definitions must never reach Run.
	Validate(def domain.Definition) error

	// Recipes lists the manifests available in the catalog.
	Recipes(ctx context.Context) ([]*domain.Manifest, error)
}
