package database

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// SampleReader provides read-only access to the stored dataset
type SampleReader interface {
	// LoadDataset returns all samples in their original dataset order
	LoadDataset(ctx context.Context) (*dataset.Dataset, error)
	// Count returns the number of stored samples
	Count(ctx context.Context) (int, error)
	// CountByLabel returns the number of stored samples per label
	CountByLabel(ctx context.Context) (map[string]int, error)
}

// SampleWriter provides write access to the stored dataset
type SampleWriter interface {
	SampleReader

	// ReplaceDataset atomically replaces every stored sample with the samples of ds.
	// onProgress, when set, is called after each inserted sample.
	ReplaceDataset(ctx context.Context, ds *dataset.Dataset, onProgress func()) error
}

// AttendanceStore is an attendance log kept in the database
type AttendanceStore interface {
	attendance.Store
	attendance.Reader
}
