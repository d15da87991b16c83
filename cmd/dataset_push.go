package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/dataset"
)

var datasetPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Replace the PostgreSQL samples with the dataset CSV",
	Long: `Load the dataset CSV and replace every sample stored in PostgreSQL with its
rows, in one transaction. Vectors are stored with pgvector. Afterwards set
DATASET_SOURCE=postgres to recognize against the stored samples.

Requires DATABASE_URL.

Examples:
  face-attendance dataset push
  face-attendance dataset push --file /data/faces.csv`,
	Args: cobra.NoArgs,
	RunE: runDatasetPush,
}

func init() {
	datasetCmd.AddCommand(datasetPushCmd)

	datasetPushCmd.Flags().String("file", "", "Dataset CSV to push (default DATASET_PATH)")
	datasetPushCmd.Flags().Bool("json", false, "Output as JSON")
}

// PushResult represents the result of a push operation
type PushResult struct {
	File       string `json:"file"`
	Samples    int    `json:"samples"`
	Labels     int    `json:"labels"`
	DurationMs int64  `json:"duration_ms"`
}

func runDatasetPush(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	if err := connectDatabase(cfg); err != nil {
		return err
	}

	file := mustGetString(cmd, "file")
	if file == "" {
		file = cfg.Dataset.Path
	}
	jsonOutput := mustGetBool(cmd, "json")
	startTime := time.Now()

	ds, err := dataset.Load(file)
	if err != nil {
		return err
	}
	repo, err := database.GetSampleWriter()
	if err != nil {
		return err
	}

	bar := newProgressBar(ds.Len(), "Storing samples", "samples", jsonOutput)
	if err := repo.ReplaceDataset(context.Background(), ds, progressFunc(bar)); err != nil {
		return fmt.Errorf("push dataset: %w", err)
	}

	result := PushResult{
		File:       file,
		Samples:    ds.Len(),
		Labels:     len(ds.Labels()),
		DurationMs: time.Since(startTime).Milliseconds(),
	}
	if jsonOutput {
		return outputJSON(result)
	}
	fmt.Printf("Stored %d samples of %d labels from %s in %s\n",
		result.Samples, result.Labels, file, time.Since(startTime).Round(time.Millisecond))
	return nil
}
