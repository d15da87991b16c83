package postgres

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// SampleRepository provides PostgreSQL-backed dataset storage with vectors kept as pgvector values
type SampleRepository struct {
	pool *Pool
}

// NewSampleRepository creates a new PostgreSQL sample repository
func NewSampleRepository(pool *Pool) *SampleRepository {
	return &SampleRepository{pool: pool}
}

var _ database.SampleWriter = (*SampleRepository)(nil)

// List returns every stored sample ordered by dataset position
func (r *SampleRepository) List(ctx context.Context) ([]database.StoredSample, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, position, label, embedding, created_at
		FROM samples
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []database.StoredSample
	for rows.Next() {
		var s database.StoredSample
		var vec pgvector.Vector
		if err := rows.Scan(&s.ID, &s.Position, &s.Label, &vec, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		s.Vector = vec.Slice()
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// LoadDataset builds a dataset from the stored samples
func (r *SampleRepository) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	stored, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	samples := make([]dataset.LabeledSample, len(stored))
	for i, s := range stored {
		samples[i] = s.LabeledSample()
	}
	ds, err := dataset.New(samples)
	if err != nil {
		return nil, fmt.Errorf("load dataset from database: %w", err)
	}
	return ds, nil
}

// Count returns the number of stored samples
func (r *SampleRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM samples").Scan(&count); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return count, nil
}

// CountByLabel returns the number of stored samples per label
func (r *SampleRepository) CountByLabel(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, "SELECT label, COUNT(*) FROM samples GROUP BY label")
	if err != nil {
		return nil, fmt.Errorf("count samples by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label counts: %w", err)
	}
	return counts, nil
}

// ReplaceDataset deletes all stored samples and inserts the samples of ds in one transaction
func (r *SampleRepository) ReplaceDataset(ctx context.Context, ds *dataset.Dataset, onProgress func()) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM samples"); err != nil {
		return fmt.Errorf("delete samples: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (position, label, embedding) VALUES ($1, $2, $3)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range ds.Len() {
		s := ds.Sample(i)
		if _, err := stmt.ExecContext(ctx, i, s.Label, pgvector.NewVector(s.Vector.Float32())); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
		if onProgress != nil {
			onProgress()
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit samples: %w", err)
	}
	return nil
}
