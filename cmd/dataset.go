package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect, store and audit the face dataset",
}

var datasetInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show sample count, dimension and per-label counts",
	Long: `Show the size of the dataset read from the configured source
(DATASET_SOURCE=csv reads DATASET_PATH, postgres reads the samples table).`,
	Args: cobra.NoArgs,
	RunE: runDatasetInspect,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetInspectCmd)

	datasetInspectCmd.Flags().Bool("json", false, "Output as JSON")
}

// DatasetSummary describes a loaded dataset
type DatasetSummary struct {
	Source  string         `json:"source"`
	Samples int            `json:"samples"`
	Dim     int            `json:"dim"`
	Labels  map[string]int `json:"labels"`
}

func runDatasetInspect(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	ds, err := loadDataset(context.Background(), cfg)
	if err != nil {
		return err
	}

	summary := DatasetSummary{
		Source:  cfg.Dataset.Source,
		Samples: ds.Len(),
		Dim:     ds.Dim(),
		Labels:  ds.LabelCounts(),
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(summary)
	}

	fmt.Printf("Source:  %s\n", summary.Source)
	fmt.Printf("Samples: %d\n", summary.Samples)
	fmt.Printf("Dim:     %d", summary.Dim)
	if want := cfg.Recognition.FeatureDim(); summary.Samples > 0 && summary.Dim != want {
		fmt.Printf(" (FACE_SIZE expects %d)", want)
	}
	fmt.Println()
	fmt.Printf("Labels:  %d\n", len(summary.Labels))
	for _, label := range sortedKeys(summary.Labels) {
		fmt.Printf("  %-24s %d\n", label, summary.Labels[label])
	}
	return nil
}
