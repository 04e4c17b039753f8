// Package tests provides reusable contract suites for ports implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests verifying that a RunStore
// implementation adheres to the interface contract.
func RunStoreContract(t *testing.T, store ports.RunStore) {
	ctx := context.Background()
	id := "contract-run-" + time.Now().Format("20060102150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		rec := &domain.RunRecord{
			CorrelationID: id,
			Recipe:        "contract",
			Status:        domain.RunSucceeded,
			Values:        map[string]any{"number": 32, "note": "ok"},
			StartedAt:     time.Now().Add(-time.Second).UTC(),
			FinishedAt:    time.Now().UTC(),
		}
		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.CorrelationID, loaded.CorrelationID)
		assert.Equal(t, rec.Recipe, loaded.Recipe)
		assert.Equal(t, domain.RunSucceeded, loaded.Status)
		// JSON persistence may widen numerics, so only presence is part
		// of the contract for non-string values.
		assert.NotNil(t, loaded.Values["number"])
		assert.Equal(t, "ok", loaded.Values["note"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		rec := &domain.RunRecord{
			CorrelationID: id,
			Recipe:        "contract",
			Status:        domain.RunFailed,
			FailedStep:    "charge",
			Error:         "card declined",
			StartedAt:     time.Now().UTC(),
			FinishedAt:    time.Now().UTC(),
		}
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.RunFailed, loaded.Status)
		assert.Equal(t, "charge", loaded.FailedStep)
		assert.Equal(t, "card declined", loaded.Error)
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, &domain.RunRecord{CorrelationID: id1, Recipe: "contract", Status: domain.RunSucceeded}))
		require.NoError(t, store.Save(ctx, &domain.RunRecord{CorrelationID: id2, Recipe: "contract", Status: domain.RunSucceeded}))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		recs, err := store.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(recs))
		for _, r := range recs {
			ids = append(ids, r.CorrelationID)
		}
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.RunRecord{CorrelationID: id, Recipe: "contract", Status: domain.RunSucceeded}))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})
}

// CatalogContract runs a suite of tests verifying that a Loader
// implementation adheres to the interface contract. The catalog must be
// pre-populated with manifests named exactly as listed in want.
func CatalogContract(t *testing.T, cat ports.Loader, want []string) {
	ctx := context.Background()
	require.NotEmpty(t, want, "contract needs at least one expected manifest")

	t.Run("Load", func(t *testing.T) {
		m, err := cat.Load(ctx, want[0])
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, want[0], m.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := cat.Load(ctx, "definitely-not-a-recipe")
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})

	t.Run("List", func(t *testing.T) {
		all, err := cat.List(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(all))
		for _, m := range all {
			names = append(names, m.Name)
		}
		assert.ElementsMatch(t, want, names)
	})
}
