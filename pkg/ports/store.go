package ports

import (
	"context"

	"github.com/cloud8421/recipe/pkg/domain"
)

// RunStore persists terminal run records for audit and inspection.
// In-flight state never reaches a store.
type RunStore interface {
	// Save persists the record, keyed by its correlation id. Saving an
	// existing id overwrites the previous record.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Load retrieves a record by correlation id.
	// Returns domain.ErrRunNotFound if no such run was recorded.
	Load(ctx context.Context, correlationID string) (*domain.RunRecord, error)

	// List returns all recorded runs.
	List(ctx context.Context) ([]*domain.RunRecord, error)

	// Delete removes a record by correlation id.
	Delete(ctx context.Context, correlationID string) error
}
