package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDatasetFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faces_dataset.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write dataset file: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeDatasetFile(t, "alice,0,0,0\nbob,10,10.5,255\nalice,1,2,3\n")

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if ds.Len() != 3 {
		t.Errorf("expected 3 samples, got %d", ds.Len())
	}
	if ds.Dim() != 3 {
		t.Errorf("expected dim 3, got %d", ds.Dim())
	}
	if got := ds.Sample(1); got.Label != "bob" || got.Vector[1] != 10.5 {
		t.Errorf("unexpected second sample: %+v", got)
	}
	if labels := ds.Labels(); strings.Join(labels, ",") != "alice,bob" {
		t.Errorf("expected labels [alice bob], got %v", labels)
	}
	if counts := ds.LabelCounts(); counts["alice"] != 2 || counts["bob"] != 1 {
		t.Errorf("unexpected label counts: %v", counts)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeDatasetFile(t, "")

	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 0 || ds.Dim() != 0 {
		t.Errorf("expected empty dataset, got len=%d dim=%d", ds.Len(), ds.Dim())
	}
}

func TestLoad_NotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "missing.csv")},
		{"directory", t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(tt.path)
			if !errors.Is(err, ErrDatasetNotFound) {
				t.Errorf("expected ErrDatasetNotFound, got %v", err)
			}
			if ds != nil {
				t.Error("expected no dataset on error")
			}
		})
	}
}

func TestLoad_MalformedRows(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{
			name:     "non-numeric field",
			content:  "alice,1,2,3\nbob,1,x,3\n",
			wantLine: 2,
		},
		{
			name:     "shorter row after three good rows",
			content:  "alice,1,2,3\nalice,4,5,6\nalice,7,8,9\nalice,1,2\n",
			wantLine: 4,
		},
		{
			name:     "longer row",
			content:  "alice,1,2\nbob,1,2,3\n",
			wantLine: 2,
		},
		{
			name:     "label only",
			content:  "alice\n",
			wantLine: 1,
		},
		{
			name:     "empty label",
			content:  ",1,2\n",
			wantLine: 1,
		},
		{
			name:     "trailing comma",
			content:  "alice,1,2,\n",
			wantLine: 1,
		},
		{
			name:     "NaN value",
			content:  "alice,1,NaN\n",
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDatasetFile(t, tt.content)

			ds, err := Load(path)
			if !errors.Is(err, ErrMalformedRow) {
				t.Fatalf("expected ErrMalformedRow, got %v", err)
			}
			if ds != nil {
				t.Error("expected no partial dataset")
			}

			var rowErr *MalformedRowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("expected *MalformedRowError in chain, got %T", err)
			}
			if rowErr.Line != tt.wantLine {
				t.Errorf("expected line %d, got %d (%v)", tt.wantLine, rowErr.Line, err)
			}
		})
	}
}

func TestParse_SkipsBlankLinesAndTrimsFields(t *testing.T) {
	ds, err := Parse(strings.NewReader("alice, 1, 2\n\nbob,3 ,4\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", ds.Len())
	}
	if ds.Sample(1).Vector[0] != 3 {
		t.Errorf("expected trimmed value 3, got %v", ds.Sample(1).Vector[0])
	}
}

func TestWriter_OutputIsParseable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	samples := []LabeledSample{
		{Label: "alice", Vector: FeatureVector{0, 128, 255}},
		{Label: "Jan Novák", Vector: FeatureVector{1.5, 2, 3}},
	}
	for _, s := range samples {
		if err := w.Write(s); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if !strings.HasPrefix(buf.String(), "alice,0,128,255\n") {
		t.Errorf("expected integer pixel formatting, got %q", buf.String())
	}

	ds, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if ds.Len() != 2 || ds.Sample(1).Label != "Jan Novák" || ds.Sample(1).Vector[0] != 1.5 {
		t.Errorf("unexpected parsed dataset: %+v", ds.Samples())
	}
	if w.Rows() != 2 || w.Dim() != 3 {
		t.Errorf("expected rows=2 dim=3, got rows=%d dim=%d", w.Rows(), w.Dim())
	}
}

func TestWriter_RejectsInconsistentRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Write(LabeledSample{Label: "alice", Vector: FeatureVector{1, 2}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(LabeledSample{Label: "bob", Vector: FeatureVector{1}}); err == nil {
		t.Error("expected error for mismatched dimension")
	}
	if err := w.Write(LabeledSample{Label: "a,b", Vector: FeatureVector{1, 2}}); err == nil {
		t.Error("expected error for label with comma")
	}
}

func TestNew(t *testing.T) {
	vec := FeatureVector{1, 2}
	ds, err := New([]LabeledSample{{Label: "alice", Vector: vec}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The dataset keeps its own copy.
	vec[0] = 99
	if ds.Sample(0).Vector[0] != 1 {
		t.Error("expected dataset to be unaffected by caller mutation")
	}

	_, err = New([]LabeledSample{
		{Label: "alice", Vector: FeatureVector{1, 2}},
		{Label: "bob", Vector: FeatureVector{1}},
	})
	if !errors.Is(err, ErrMalformedRow) {
		t.Errorf("expected ErrMalformedRow for mismatched vectors, got %v", err)
	}
}

func TestFeatureVector_Float32RoundTrip(t *testing.T) {
	v := FeatureVector{0, 17, 255}
	back := FromFloat32(v.Float32())
	for i := range v {
		if back[i] != v[i] {
			t.Errorf("index %d: got %v, want %v", i, back[i], v[i])
		}
	}
}
