// Package dataset holds the labeled face feature vectors that recognition compares against.
// A Dataset is built once (from CSV or the database) and is read-only afterwards, so it can
// be shared by concurrent classifications without locking.
package dataset

import (
	"fmt"
	"slices"
)

// FeatureVector is a fixed-length encoding of a normalized face crop
// (grayscale pixels, row-major).
type FeatureVector []float64

// Float32 returns a float32 copy of the vector for float32-based indexes and storage.
func (v FeatureVector) Float32() []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// FromFloat32 converts a float32 vector back into a FeatureVector.
func FromFloat32(v []float32) FeatureVector {
	out := make(FeatureVector, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// LabeledSample pairs a person label with one feature vector.
type LabeledSample struct {
	Label  string
	Vector FeatureVector
}

// Dataset is an ordered, immutable collection of labeled samples sharing one dimension.
type Dataset struct {
	samples []LabeledSample
	dim     int
}

// New builds a Dataset from samples, keeping their order.
// All vectors must have the same non-zero length and every label must be valid.
func New(samples []LabeledSample) (*Dataset, error) {
	ds := &Dataset{samples: make([]LabeledSample, 0, len(samples))}
	for i, s := range samples {
		if err := ValidateLabel(s.Label); err != nil {
			return nil, &MalformedRowError{Line: i + 1, Reason: err.Error()}
		}
		if len(s.Vector) == 0 {
			return nil, &MalformedRowError{Line: i + 1, Reason: "no feature values"}
		}
		if i == 0 {
			ds.dim = len(s.Vector)
		} else if len(s.Vector) != ds.dim {
			return nil, &MalformedRowError{
				Line:   i + 1,
				Reason: fmt.Sprintf("expected %d feature values, got %d", ds.dim, len(s.Vector)),
			}
		}
		ds.samples = append(ds.samples, LabeledSample{Label: s.Label, Vector: slices.Clone(s.Vector)})
	}
	return ds, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.samples)
}

// Dim returns the shared vector length, or 0 for an empty dataset.
func (d *Dataset) Dim() int {
	if d == nil {
		return 0
	}
	return d.dim
}

// Sample returns the i-th sample in insertion order.
// The returned vector is shared with the dataset and must not be modified.
func (d *Dataset) Sample(i int) LabeledSample {
	return d.samples[i]
}

// Samples returns a copy of the sample list. Vectors are shared and must not be modified.
func (d *Dataset) Samples() []LabeledSample {
	if d == nil {
		return nil
	}
	return slices.Clone(d.samples)
}

// Labels returns the distinct labels in order of first appearance.
func (d *Dataset) Labels() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var labels []string
	for _, s := range d.samples {
		if _, ok := seen[s.Label]; ok {
			continue
		}
		seen[s.Label] = struct{}{}
		labels = append(labels, s.Label)
	}
	return labels
}

// LabelCounts returns the number of samples per label.
func (d *Dataset) LabelCounts() map[string]int {
	counts := make(map[string]int)
	if d == nil {
		return counts
	}
	for _, s := range d.samples {
		counts[s.Label]++
	}
	return counts
}
