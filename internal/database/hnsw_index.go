package database

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/knn"
)

// SampleIndexMetadata stores metadata for validating cached HNSW indexes.
type SampleIndexMetadata struct {
	SampleCount int       `json:"sample_count"`
	Dim         int       `json:"dim"`
	Fingerprint string    `json:"fingerprint"`
	BuildTime   time.Time `json:"build_time"`
	Version     int       `json:"version"`
}

const hnswMetadataVersion = 2

// ErrStaleIndex is returned when a saved index does not match the dataset it is loaded for.
var ErrStaleIndex = errors.New("saved index does not match dataset")

// SampleIndex wraps an HNSW graph over the samples of a dataset, keyed by sample position.
// It is used for dataset diagnostics; recognition itself stays exact.
type SampleIndex struct {
	graph *hnsw.Graph[int]
	ds    *dataset.Dataset
	mu    sync.RWMutex
}

// Match is one approximate nearest neighbor.
type Match struct {
	Index    int
	Label    string
	Distance float64
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance
	return g
}

// BuildSampleIndex indexes every sample of ds.
func BuildSampleIndex(ds *dataset.Dataset) *SampleIndex {
	g := newGraph()
	for i := range ds.Len() {
		g.Add(hnsw.MakeNode(i, ds.Sample(i).Vector.Float32()))
	}
	return &SampleIndex{graph: g, ds: ds}
}

// Len returns the number of indexed samples.
func (h *SampleIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph.Len()
}

// Search finds approximately the k samples nearest to query.
// Distances are exact Euclidean distances of the returned samples.
func (h *SampleIndex) Search(query dataset.FeatureVector, k int) ([]Match, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.ds.Len() == 0 {
		return nil, knn.ErrEmptyDataset
	}
	if len(query) != h.ds.Dim() {
		return nil, &knn.DimensionMismatchError{Expected: h.ds.Dim(), Actual: len(query)}
	}
	if k < 1 {
		return nil, knn.ErrInvalidK
	}

	nodes := h.graph.Search(query.Float32(), k)
	matches := make([]Match, 0, len(nodes))
	for _, n := range nodes {
		if n.Key < 0 || n.Key >= h.ds.Len() {
			continue
		}
		s := h.ds.Sample(n.Key)
		matches = append(matches, Match{Index: n.Key, Label: s.Label, Distance: knn.Distance(query, s.Vector)})
	}
	return matches, nil
}

// Save persists the graph to path and its metadata to path.meta.
func (h *SampleIndex) Save(path string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if err := h.graph.Export(f); err != nil {
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}

	meta := SampleIndexMetadata{
		SampleCount: h.ds.Len(),
		Dim:         h.ds.Dim(),
		Fingerprint: DatasetFingerprint(h.ds),
		BuildTime:   time.Now().UTC(),
		Version:     hnswMetadataVersion,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", data, 0o600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// LoadSampleIndexMetadata loads metadata from a separate .meta file.
func LoadSampleIndexMetadata(path string) (SampleIndexMetadata, error) {
	var meta SampleIndexMetadata
	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return meta, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return meta, nil
}

// LoadSampleIndex loads a saved index for ds. It fails with ErrStaleIndex when the
// metadata shows the index was built from a dataset of a different shape.
func LoadSampleIndex(path string, ds *dataset.Dataset) (*SampleIndex, error) {
	meta, err := LoadSampleIndexMetadata(path)
	if err != nil {
		return nil, err
	}
	if meta.Version != hnswMetadataVersion || meta.SampleCount != ds.Len() || meta.Dim != ds.Dim() {
		return nil, fmt.Errorf("%w: index has %d samples of dim %d, dataset has %d of dim %d",
			ErrStaleIndex, meta.SampleCount, meta.Dim, ds.Len(), ds.Dim())
	}
	if meta.Fingerprint != DatasetFingerprint(ds) {
		return nil, fmt.Errorf("%w: dataset content changed since the index was built", ErrStaleIndex)
	}

	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to open HNSW index: %w", err)
	}
	defer f.Close()

	g := newGraph()
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("failed to load HNSW index: %w", err)
	}
	return &SampleIndex{graph: g, ds: ds}, nil
}

// DatasetFingerprint hashes every label and vector of ds in order.
func DatasetFingerprint(ds *dataset.Dataset) string {
	h := sha256.New()
	var buf [8]byte
	for i := range ds.Len() {
		s := ds.Sample(i)
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s.Label)))
		h.Write(buf[:])
		h.Write([]byte(s.Label))
		for _, v := range s.Vector {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadOrBuildSampleIndex loads the index saved at path, rebuilding and saving it when it is
// missing or stale. An empty path always builds in memory.
func LoadOrBuildSampleIndex(path string, ds *dataset.Dataset) (*SampleIndex, bool, error) {
	if path != "" {
		if idx, err := LoadSampleIndex(path, ds); err == nil {
			return idx, true, nil
		}
	}
	idx := BuildSampleIndex(ds)
	if path != "" {
		if err := idx.Save(path); err != nil {
			return nil, false, err
		}
	}
	return idx, false, nil
}
