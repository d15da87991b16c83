package attendance

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Record is one attendance event.
type Record struct {
	SessionID  string
	Label      string
	ObservedAt time.Time
}

// MarshalLine encodes the record as a newline-terminated "label,YYYY-MM-DD HH:MM:SS" line.
// The session id is not part of the file format.
func (r Record) MarshalLine() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{r.Label, r.ObservedAt.Format(constants.TimestampLayout)}); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseRecords reads attendance log lines from r. Timestamps are interpreted in loc.
func ParseRecords(r io.Reader, loc *time.Location) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var records []Record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedLine, err)
		}
		line, _ := cr.FieldPos(0)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 fields, got %d", ErrMalformedLine, line, len(fields))
		}
		ts, err := time.ParseInLocation(constants.TimestampLayout, fields[1], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedLine, line, err)
		}
		records = append(records, Record{Label: fields[0], ObservedAt: ts})
	}
	return records, nil
}

// Since returns the records observed at or after t, keeping their order.
// A zero t returns all records.
func Since(records []Record, t time.Time) []Record {
	if t.IsZero() {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.ObservedAt.Before(t) {
			out = append(out, r)
		}
	}
	return out
}
