package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Store implements ports.RunStore using the local filesystem.
// It stores run records as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".recipe/runs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".recipe", "runs")
	}
	return &Store{BasePath: basePath}
}

// Save persists the run record to a JSON file atomically: write to a
// temp file in the same directory, fsync, then rename over the
// destination. A crash mid-save leaves the previous record intact.
func (s *Store) Save(ctx context.Context, rec *domain.RunRecord) error {
	if rec.CorrelationID == "" {
		return fmt.Errorf("correlation id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure run directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, rec.CorrelationID+".json")

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	// The temp file lives in the same directory so the rename stays on
	// one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+rec.CorrelationID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Close before rename; Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows os.Rename also refuses to replace an existing file, so
	// clear the destination first. The delete+rename window is
	// acceptable compared to a partially written record.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing run file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load retrieves a run record from its JSON file.
func (s *Store) Load(ctx context.Context, correlationID string) (*domain.RunRecord, error) {
	if correlationID == "" {
		return nil, fmt.Errorf("correlation id cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath, correlationID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &rec, nil
}

// List returns all recorded runs, most recent first.
func (s *Store) List(ctx context.Context) ([]*domain.RunRecord, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.RunRecord{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var recs []*domain.RunRecord
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		rec, err := s.Load(ctx, id)
		if err != nil {
			// Skip files that vanished or were corrupted between the
			// directory scan and the read.
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StartedAt.Equal(recs[j].StartedAt) {
			return recs[i].CorrelationID < recs[j].CorrelationID
		}
		return recs[i].StartedAt.After(recs[j].StartedAt)
	})
	return recs, nil
}

// Delete removes the run file. Deleting a run that was never recorded
// is not an error.
func (s *Store) Delete(ctx context.Context, correlationID string) error {
	if correlationID == "" {
		return fmt.Errorf("correlation id cannot be empty")
	}

	err := os.Remove(filepath.Join(s.BasePath, correlationID+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run file: %w", err)
	}

	return nil
}
