package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Load reads a dataset CSV (label,v1,...,vN per row).
// It fails with ErrDatasetNotFound when the file is missing or unreadable and with
// ErrMalformedRow on a bad row. No partial dataset is ever returned.
func Load(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetNotFound, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrDatasetNotFound, path)
	}

	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetNotFound, err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		if errors.Is(err, ErrMalformedRow) {
			return nil, fmt.Errorf("load dataset %s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrDatasetNotFound, path, err)
	}
	return ds, nil
}

// Parse reads dataset rows from r. The first parsed row fixes the vector length;
// every following row must match it.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // shape is checked below to report MalformedRowError
	cr.ReuseRecord = true

	ds := &Dataset{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedRowError{Line: parseErr.Line, Reason: parseErr.Err.Error(), cause: err}
			}
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		line, _ := cr.FieldPos(0)

		sample, err := parseRecord(record, line)
		if err != nil {
			return nil, err
		}
		if ds.dim == 0 {
			ds.dim = len(sample.Vector)
		} else if len(sample.Vector) != ds.dim {
			return nil, &MalformedRowError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d feature values, got %d", ds.dim, len(sample.Vector)),
			}
		}
		ds.samples = append(ds.samples, sample)
	}
	return ds, nil
}

func parseRecord(record []string, line int) (LabeledSample, error) {
	label := strings.TrimSpace(record[0])
	if err := ValidateLabel(label); err != nil {
		return LabeledSample{}, &MalformedRowError{Line: line, Reason: err.Error()}
	}
	if len(record) < 2 {
		return LabeledSample{}, &MalformedRowError{Line: line, Reason: "no feature values"}
	}

	vec := make(FeatureVector, len(record)-1)
	for i, field := range record[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return LabeledSample{}, &MalformedRowError{
				Line:   line,
				Reason: fmt.Sprintf("field %d is not numeric: %q", i+2, field),
				cause:  err,
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return LabeledSample{}, &MalformedRowError{
				Line:   line,
				Reason: fmt.Sprintf("field %d is not a finite number: %q", i+2, field),
			}
		}
		vec[i] = v
	}
	return LabeledSample{Label: label, Vector: vec}, nil
}
