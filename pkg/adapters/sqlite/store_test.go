package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloud8421/recipe/pkg/adapters/sqlite"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	contract "github.com/cloud8421/recipe/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Store implements RunStore
var _ ports.RunStore = (*sqlite.Store)(nil)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	contract.RunStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.RunRecord{
		CorrelationID: "persist-1",
		Recipe:        "checkout",
		Status:        domain.RunFailed,
		FailedStep:    "charge",
		Error:         "card declined",
		Values:        map[string]any{"amount": "12.50"},
		StartedAt:     time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 2, 3, 10, 0, 1, 0, time.UTC),
	}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	rec, err := reopened.Load(ctx, "persist-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, rec.Status)
	assert.Equal(t, "charge", rec.FailedStep)
	assert.Equal(t, "12.50", rec.Values["amount"])
	assert.Equal(t, time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), rec.StartedAt)
}

func TestSQLiteStore_ListIsMostRecentFirst(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Save(ctx, &domain.RunRecord{
			CorrelationID: id,
			Recipe:        "math",
			Status:        domain.RunSucceeded,
			StartedAt:     base.Add(time.Duration(i) * time.Minute),
			FinishedAt:    base.Add(time.Duration(i)*time.Minute + time.Second),
		}))
	}

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "new", recs[0].CorrelationID)
	assert.Equal(t, "mid", recs[1].CorrelationID)
	assert.Equal(t, "old", recs[2].CorrelationID)
}
