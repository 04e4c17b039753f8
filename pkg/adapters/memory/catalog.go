package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Catalog implements ports.Loader using an in-memory map.
type Catalog struct {
	mu        sync.RWMutex
	manifests map[string]*domain.Manifest
}

// NewCatalog creates a catalog from manifests. Every manifest needs a
// name; this handles copying automatically, improving DX for tests.
func NewCatalog(manifests ...*domain.Manifest) (*Catalog, error) {
	data := make(map[string]*domain.Manifest, len(manifests))
	for _, m := range manifests {
		if m == nil || m.Name == "" {
			return nil, fmt.Errorf("manifest missing name")
		}
		data[m.Name] = copyManifest(m)
	}
	return &Catalog{manifests: data}, nil
}

// Put adds or replaces a manifest.
func (c *Catalog) Put(m *domain.Manifest) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("manifest missing name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifests[m.Name] = copyManifest(m)
	return nil
}

// Load retrieves the manifest registered under name.
func (c *Catalog) Load(_ context.Context, name string) (*domain.Manifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.manifests[name]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	return copyManifest(m), nil
}

// List returns all manifests, sorted by name for deterministic order.
func (c *Catalog) List(_ context.Context) ([]*domain.Manifest, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]*domain.Manifest, 0, len(c.manifests))
	for _, m := range c.manifests {
		all = append(all, copyManifest(m))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// copyManifest isolates callers from the stored value by pointer.
func copyManifest(m *domain.Manifest) *domain.Manifest {
	out := *m
	out.Steps = slices.Clone(m.Steps)
	out.Tags = slices.Clone(m.Tags)
	return &out
}
