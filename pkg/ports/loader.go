package ports

import (
	"context"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Loader defines how the engine retrieves recipe manifests.
// This allows the catalog backend (Loam, Memory) to be decoupled.
type Loader interface {
	// Load retrieves a manifest by recipe name.
	// Returns domain.ErrRecipeNotFound if the catalog has no such entry.
	Load(ctx context.Context, name string) (*domain.Manifest, error)

	// List returns all manifests in the catalog.
	List(ctx context.Context) ([]*domain.Manifest, error)
}

// Watchable is implemented by loaders that can notify about catalog
// changes. This is typically used for hot-reload or dev-mode behavior.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying
	// catalog changes. It abstracts away the event details, signaling
	// only that a reload happened.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
