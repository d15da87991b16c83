package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// loadDataset reads the labeled dataset from the configured source.
func loadDataset(ctx context.Context, cfg *config.Config) (*dataset.Dataset, error) {
	if cfg.Dataset.Source == config.SourcePostgres {
		repo, err := database.GetSampleWriter()
		if err != nil {
			return nil, err
		}
		ds, err := repo.LoadDataset(ctx)
		if err != nil {
			return nil, fmt.Errorf("load dataset from PostgreSQL: %w", err)
		}
		return ds, nil
	}
	return dataset.Load(cfg.Dataset.Path)
}

// openAttendanceStore returns the configured attendance backend.
func openAttendanceStore(cfg *config.Config) (database.AttendanceStore, error) {
	if cfg.Attendance.Backend == config.BackendPostgres {
		return database.GetAttendanceStore()
	}
	return attendance.NewFileStore(cfg.Attendance.Path), nil
}

// describeAttendanceStore names the backend for user-facing output.
func describeAttendanceStore(cfg *config.Config) string {
	if cfg.Attendance.Backend == config.BackendPostgres {
		return "PostgreSQL"
	}
	return cfg.Attendance.Path
}

// checkDimension fails early when camera crops would never match the dataset.
func checkDimension(ds *dataset.Dataset, dim int) error {
	if ds.Len() > 0 && ds.Dim() != dim {
		return fmt.Errorf("dataset vectors have %d values but FACE_SIZE produces %d; rebuild the dataset or adjust FACE_SIZE",
			ds.Dim(), dim)
	}
	return nil
}
