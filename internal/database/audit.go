package database

import (
	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// Conflict is a sample whose nearest other sample carries a different label.
// Such samples make the vote unreliable and are usually mislabeled captures.
type Conflict struct {
	Index         int
	Label         string
	NeighborIndex int
	NeighborLabel string
	Distance      float64
}

// AuditReport summarizes an audit run.
type AuditReport struct {
	Samples   int
	Checked   int
	Conflicts []Conflict
}

// Audit finds, for every sample of ds, its nearest other sample through idx and reports
// label disagreements.
func Audit(ds *dataset.Dataset, idx *SampleIndex, onProgress func()) (AuditReport, error) {
	report := AuditReport{Samples: ds.Len()}
	if ds.Len() < 2 {
		return report, nil
	}

	for i := range ds.Len() {
		s := ds.Sample(i)
		// the sample itself is normally the first hit
		matches, err := idx.Search(s.Vector, 2)
		if err != nil {
			return report, err
		}
		for _, m := range matches {
			if m.Index == i {
				continue
			}
			report.Checked++
			if m.Label != s.Label {
				report.Conflicts = append(report.Conflicts, Conflict{
					Index:         i,
					Label:         s.Label,
					NeighborIndex: m.Index,
					NeighborLabel: m.Label,
					Distance:      m.Distance,
				})
			}
			break
		}
		if onProgress != nil {
			onProgress()
		}
	}
	return report, nil
}
