package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Catalog adapts the Loam library to the ports.Loader interface,
// reading recipe manifests from Markdown files with YAML front matter.
type Catalog struct {
	Repo *loam.TypedRepository[ManifestMetadata]
}

// New creates a new Loam catalog from an existing typed repository.
func New(repo *loam.TypedRepository[ManifestMetadata]) *Catalog {
	return &Catalog{
		Repo: repo,
	}
}

// Open initializes a Loam repository at path and wraps it in a catalog.
// Strict mode keeps numeric front-matter types consistent across
// adapters; read-only mode avoids Loam's sandbox behavior in dev mode,
// since the catalog never modifies manifests.
func Open(path string) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[ManifestMetadata](repo)), nil
}

// Load retrieves a manifest by recipe name. The name is tried as a
// document id first (Loam normalizes "checkout" to checkout.md), then
// matched against front-matter names, so a manifest may live in a file
// named differently from the recipe it declares.
func (c *Catalog) Load(ctx context.Context, name string) (*domain.Manifest, error) {
	doc, err := c.Repo.Get(ctx, name)
	if err == nil {
		if m := c.toManifest(doc.ID, doc.Data, doc.Content); m.Steps != nil {
			return m, nil
		}
	}

	all, listErr := c.List(ctx)
	if listErr != nil {
		return nil, listErr
	}
	for _, m := range all {
		if m.Name == name {
			return m, nil
		}
	}

	return nil, domain.ErrRecipeNotFound
}

// List returns all manifests in the catalog, sorted by name. Two files
// declaring the same recipe name are a configuration error.
func (c *Catalog) List(ctx context.Context) ([]*domain.Manifest, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	manifests := make([]*domain.Manifest, 0, len(docs))

	for _, doc := range docs {
		m := c.toManifest(doc.ID, doc.Data, doc.Content)

		// Documents without a steps list are not manifests. The catalog
		// directory may hold auxiliary files (steps.yaml, notes) that
		// loam picks up; they must not surface as recipes.
		if m.Steps == nil {
			continue
		}

		if existingPath, ok := seen[m.Name]; ok {
			return nil, fmt.Errorf("collision detected: recipe %q is defined in both %q and %q", m.Name, existingPath, doc.ID)
		}
		seen[m.Name] = doc.ID
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool { return manifests[i].Name < manifests[j].Name })
	return manifests, nil
}

// Watch implements ports.Watchable, signaling whenever a manifest file
// changes on disk.
func (c *Catalog) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := c.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces on its side; collapse bursts further by
				// dropping the signal when one is already pending.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}

// toManifest maps a document onto the domain manifest. The file name
// stands in for a missing front-matter name; the Markdown body becomes
// the description.
func (c *Catalog) toManifest(docID string, meta ManifestMetadata, content string) *domain.Manifest {
	name := meta.Name
	if name == "" {
		name = trimExtension(docID)
	}

	return &domain.Manifest{
		Name:        name,
		Title:       meta.Title,
		Steps:       meta.Steps,
		Result:      meta.Result,
		Tags:        meta.Tags,
		Telemetry:   meta.Telemetry,
		Description: strings.TrimSpace(content),
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
