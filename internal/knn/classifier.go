// Package knn implements brute-force k-nearest-neighbor classification over a dataset.
package knn

import (
	"cmp"
	"math"
	"slices"

	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// Neighbor is one ranked dataset sample.
type Neighbor struct {
	Index    int // insertion index in the dataset
	Label    string
	Distance float64
}

// Distance returns the Euclidean distance between two vectors of equal length.
func Distance(a, b dataset.FeatureVector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Rank returns every sample ordered by distance to query. Equal distances keep
// dataset insertion order, so the ranking is deterministic.
func Rank(ds *dataset.Dataset, query dataset.FeatureVector) ([]Neighbor, error) {
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if len(query) != ds.Dim() {
		return nil, &DimensionMismatchError{Expected: ds.Dim(), Actual: len(query)}
	}

	neighbors := make([]Neighbor, ds.Len())
	for i := range ds.Len() {
		s := ds.Sample(i)
		neighbors[i] = Neighbor{Index: i, Label: s.Label, Distance: Distance(query, s.Vector)}
	}

	slices.SortStableFunc(neighbors, func(a, b Neighbor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return neighbors, nil
}

// Nearest returns the k closest samples. k larger than the dataset is clamped.
func Nearest(ds *dataset.Dataset, query dataset.FeatureVector, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	ranked, err := Rank(ds, query)
	if err != nil {
		return nil, err
	}
	return ranked[:min(k, len(ranked))], nil
}

// Vote returns the most frequent label among neighbors, which must already be
// sorted by distance. A tie goes to the label whose closest occurrence ranks first.
func Vote(neighbors []Neighbor) string {
	counts := make(map[string]int, len(neighbors))
	var order []string // labels by first (closest) occurrence
	for _, n := range neighbors {
		if counts[n.Label] == 0 {
			order = append(order, n.Label)
		}
		counts[n.Label]++
	}

	var best string
	bestCount := 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

// Predict classifies query by majority vote of its k nearest samples.
func Predict(ds *dataset.Dataset, query dataset.FeatureVector, k int) (string, error) {
	label, _, err := PredictWithNeighbors(ds, query, k)
	return label, err
}

// PredictWithNeighbors is Predict that also returns the voting neighbors.
func PredictWithNeighbors(ds *dataset.Dataset, query dataset.FeatureVector, k int) (string, []Neighbor, error) {
	neighbors, err := Nearest(ds, query, k)
	if err != nil {
		return "", nil, err
	}
	return Vote(neighbors), neighbors, nil
}

// Classifier binds a dataset and k for repeated predictions.
// It is safe for concurrent use because the dataset is immutable.
type Classifier struct {
	dataset *dataset.Dataset
	k       int
}

// NewClassifier creates a classifier over ds voting with k neighbors.
func NewClassifier(ds *dataset.Dataset, k int) (*Classifier, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	return &Classifier{dataset: ds, k: k}, nil
}

// Predict classifies query against the bound dataset.
func (c *Classifier) Predict(query dataset.FeatureVector) (string, []Neighbor, error) {
	return PredictWithNeighbors(c.dataset, query, c.k)
}

// K returns the number of voting neighbors.
func (c *Classifier) K() int {
	return c.k
}

// Dataset returns the bound dataset.
func (c *Classifier) Dataset() *dataset.Dataset {
	return c.dataset
}
