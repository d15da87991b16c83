package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/database"
)

var datasetAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Find samples whose nearest neighbor has a different label",
	Long: `Index the dataset with HNSW and look up the nearest other sample of every
sample. Samples whose nearest neighbor carries a different label are usually
mislabeled or poorly cropped captures and make the vote unreliable.

The index is kept at HNSW_INDEX_PATH when set and rebuilt whenever it no
longer matches the dataset.`,
	Args: cobra.NoArgs,
	RunE: runDatasetAudit,
}

func init() {
	datasetCmd.AddCommand(datasetAuditCmd)

	datasetAuditCmd.Flags().Bool("json", false, "Output as JSON")
}

// AuditResult is the JSON form of an audit report
type AuditResult struct {
	Samples     int             `json:"samples"`
	Checked     int             `json:"checked"`
	IndexLoaded bool            `json:"index_loaded"`
	Conflicts   []AuditConflict `json:"conflicts"`
}

// AuditConflict is one sample disagreeing with its nearest neighbor
type AuditConflict struct {
	Row           int     `json:"row"`
	Label         string  `json:"label"`
	NeighborRow   int     `json:"neighbor_row"`
	NeighborLabel string  `json:"neighbor_label"`
	Distance      float64 `json:"distance"`
}

func runDatasetAudit(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	jsonOutput := mustGetBool(cmd, "json")

	ds, err := loadDataset(context.Background(), cfg)
	if err != nil {
		return err
	}

	idx, loaded, err := database.LoadOrBuildSampleIndex(cfg.Dataset.HNSWIndexPath, ds)
	if err != nil {
		return err
	}

	bar := newProgressBar(ds.Len(), "Auditing samples", "samples", jsonOutput)
	report, err := database.Audit(ds, idx, progressFunc(bar))
	if err != nil {
		return err
	}

	// rows are 1-based like the CSV file
	result := AuditResult{
		Samples:     report.Samples,
		Checked:     report.Checked,
		IndexLoaded: loaded,
		Conflicts:   make([]AuditConflict, len(report.Conflicts)),
	}
	for i, c := range report.Conflicts {
		result.Conflicts[i] = AuditConflict{
			Row:           c.Index + 1,
			Label:         c.Label,
			NeighborRow:   c.NeighborIndex + 1,
			NeighborLabel: c.NeighborLabel,
			Distance:      c.Distance,
		}
	}
	if jsonOutput {
		return outputJSON(result)
	}

	fmt.Printf("Checked %d of %d samples\n", result.Checked, result.Samples)
	if len(result.Conflicts) == 0 {
		fmt.Println("No label conflicts found")
		return nil
	}
	fmt.Printf("%d samples are closest to another label:\n", len(result.Conflicts))
	for _, c := range result.Conflicts {
		fmt.Printf("  row %-6d %-20s nearest row %-6d %-20s distance %.1f\n",
			c.Row, c.Label, c.NeighborRow, c.NeighborLabel, c.Distance)
	}
	return nil
}
