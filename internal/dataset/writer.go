package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Writer writes samples as dataset CSV rows readable by Parse.
type Writer struct {
	csv  *csv.Writer
	dim  int
	rows int
	buf  []string
}

// NewWriter creates a dataset writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write appends one row. The first row fixes the dimension for the rest of the file.
func (w *Writer) Write(s LabeledSample) error {
	if err := ValidateLabel(s.Label); err != nil {
		return fmt.Errorf("write sample %d: %w", w.rows+1, err)
	}
	if len(s.Vector) == 0 {
		return fmt.Errorf("write sample %d: no feature values", w.rows+1)
	}
	if w.dim == 0 {
		w.dim = len(s.Vector)
	} else if len(s.Vector) != w.dim {
		return fmt.Errorf("write sample %d: expected %d feature values, got %d", w.rows+1, w.dim, len(s.Vector))
	}

	w.buf = append(w.buf[:0], s.Label)
	for _, v := range s.Vector {
		w.buf = append(w.buf, strconv.FormatFloat(v, 'f', -1, 64))
	}
	if err := w.csv.Write(w.buf); err != nil {
		return fmt.Errorf("write sample %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Flush writes any buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Dim returns the vector length fixed by the first row, or 0 before any row was written.
func (w *Writer) Dim() int {
	return w.dim
}
