package database

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// StoredSample represents a labeled feature vector stored in the database
type StoredSample struct {
	ID        int64
	Label     string
	Vector    []float32
	Position  int // order of the sample in the dataset it was pushed from
	CreatedAt time.Time
}

// LabeledSample converts the stored sample back into a dataset sample.
func (s StoredSample) LabeledSample() dataset.LabeledSample {
	return dataset.LabeledSample{Label: s.Label, Vector: dataset.FromFloat32(s.Vector)}
}
