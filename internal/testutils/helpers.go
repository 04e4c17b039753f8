package testutils

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cloud8421/recipe/pkg/domain"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam sometimes prefers absolute paths, though t.TempDir usually returns one.
	// Ensuring it is absolute is safe.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SaveManifest writes a recipe manifest into the repository as a
// Markdown document with YAML front matter, the on-disk format the loam
// catalog reads. The body becomes the manifest description.
func SaveManifest(t *testing.T, repo core.Repository, m *domain.Manifest, body string) {
	t.Helper()

	meta := map[string]any{
		"name":  m.Name,
		"steps": m.Steps,
	}
	if m.Title != "" {
		meta["title"] = m.Title
	}
	if m.Result != "" {
		meta["result"] = m.Result
	}
	if len(m.Tags) > 0 {
		meta["tags"] = m.Tags
	}
	if m.Telemetry {
		meta["telemetry"] = true
	}

	frontMatter, err := yaml.Marshal(meta)
	require.NoError(t, err, "Failed to marshal manifest front matter")

	doc := core.Document{
		ID:      m.Name + ".md",
		Content: fmt.Sprintf("---\n%s---\n%s", frontMatter, body),
	}
	require.NoError(t, repo.Save(context.Background(), doc), "Failed to save manifest document")
}
