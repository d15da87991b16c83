package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <faces-dir>",
	Short: "Build the dataset CSV from labeled face images",
	Long: `Build the dataset CSV from a directory of face crops laid out as
<faces-dir>/<label>/<image>. Every image is converted to grayscale, resized to
FACE_SIZE x FACE_SIZE and written as one "label,p1,...,pN" row.

Unreadable images are reported and skipped. With --dedupe, images nearly
identical to an earlier image of the same label (consecutive camera frames) are
skipped too, so no capture outweighs the others in the vote. The output file is
replaced only when the whole directory was processed.

Examples:
  face-attendance prepare faces/
  face-attendance prepare faces/ --output /data/faces.csv --ascii-labels --dedupe`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().StringP("output", "o", "", "Dataset CSV to write (default DATASET_PATH)")
	prepareCmd.Flags().Bool("ascii-labels", false, "Strip diacritics from labels (Jiří -> Jiri)")
	prepareCmd.Flags().Bool("dedupe", false, "Skip near-duplicate images of the same label")
	prepareCmd.Flags().Bool("json", false, "Output as JSON")
}

// PrepareResult summarizes a prepare run
type PrepareResult struct {
	Output     string         `json:"output"`
	Rows       int            `json:"rows"`
	Dim        int            `json:"dim"`
	Labels     map[string]int `json:"labels"`
	Skipped    []string       `json:"skipped,omitempty"`
	Duplicates []string       `json:"duplicates,omitempty"`
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	output := mustGetString(cmd, "output")
	if output == "" {
		output = cfg.Dataset.Path
	}
	asciiLabels := mustGetBool(cmd, "ascii-labels")
	jsonOutput := mustGetBool(cmd, "json")

	images, err := vision.ScanLabeledImages(args[0])
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images found under %s", args[0])
	}

	normalizer, err := vision.NewNormalizer(cfg.Recognition.FaceSize)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var dedupe *vision.DuplicateFilter
	if mustGetBool(cmd, "dedupe") {
		dedupe = vision.NewDuplicateFilter(constants.DuplicateHashDistance)
	}

	bar := newProgressBar(len(images), "Normalizing faces", "images", jsonOutput)
	result, err := writeDataset(tmp, images, normalizer, asciiLabels, dedupe, progressFunc(bar))
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close dataset file: %w", cerr)
	}
	if err != nil {
		return err
	}
	if result.Rows == 0 {
		return fmt.Errorf("none of the %d images could be read", len(images))
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("replace dataset file: %w", err)
	}
	result.Output = output

	if jsonOutput {
		return outputJSON(result)
	}
	fmt.Printf("Wrote %d samples of %d values to %s\n", result.Rows, result.Dim, output)
	for _, label := range sortedKeys(result.Labels) {
		fmt.Printf("  %-24s %d\n", label, result.Labels[label])
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d unreadable images\n", len(result.Skipped))
	}
	if len(result.Duplicates) > 0 {
		fmt.Printf("Skipped %d near-duplicate images\n", len(result.Duplicates))
	}
	return nil
}

// writeDataset normalizes every image and writes it as a dataset row. Images that cannot be
// decoded are skipped, as are duplicates when dedupe is set; write errors abort.
func writeDataset(
	w io.Writer, images []vision.LabeledImage, normalizer *vision.Normalizer, asciiLabels bool,
	dedupe *vision.DuplicateFilter, onProgress func(),
) (PrepareResult, error) {
	result := PrepareResult{Labels: make(map[string]int)}
	writer := dataset.NewWriter(w)

	for _, img := range images {
		if onProgress != nil {
			onProgress()
		}
		label := img.Label
		if asciiLabels {
			label = dataset.RemoveDiacritics(label)
		}
		if err := dataset.ValidateLabel(label); err != nil {
			log.WithField("path", img.Path).WithError(err).Warn("Skipping image with invalid label")
			result.Skipped = append(result.Skipped, img.Path)
			continue
		}

		decoded, err := vision.LoadImage(img.Path)
		if err != nil {
			log.WithField("path", img.Path).WithError(err).Warn("Skipping unreadable image")
			result.Skipped = append(result.Skipped, img.Path)
			continue
		}
		if dedupe != nil && dedupe.Seen(label, decoded) {
			log.WithField("path", img.Path).Debug("Skipping near-duplicate image")
			result.Duplicates = append(result.Duplicates, img.Path)
			continue
		}
		vec, err := normalizer.NormalizeImage(decoded)
		if err != nil {
			log.WithField("path", img.Path).WithError(err).Warn("Skipping image")
			result.Skipped = append(result.Skipped, img.Path)
			continue
		}

		if err := writer.Write(dataset.LabeledSample{Label: label, Vector: vec}); err != nil {
			return result, err
		}
		result.Labels[label]++
	}

	if err := writer.Flush(); err != nil {
		return result, err
	}
	result.Rows = writer.Rows()
	result.Dim = writer.Dim()
	return result, nil
}
