package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

var captureCmd = &cobra.Command{
	Use:   "capture <label>",
	Short: "Capture training face crops from the camera",
	Long: `Capture face crops for one person from the camera into <dir>/<label>/<n>.jpg.
Faces are found with the Haar cascade at HAAR_CASCADE_PATH. Requires a build
with -tags gocv.

Examples:
  face-attendance capture alice
  face-attendance capture "Jiří Novák" --count 50 --interval 500ms --dir faces`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Int("count", constants.DefaultCaptureCount, "Number of face crops to save")
	captureCmd.Flags().Duration("interval", constants.DefaultCaptureIntervalMs*time.Millisecond, "Pause after every saved crop")
	captureCmd.Flags().String("dir", "faces", "Dataset image root")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	label := args[0]
	if err := dataset.ValidateLabel(label); err != nil {
		return fmt.Errorf("invalid label %q: %w", label, err)
	}

	camera, err := openCamera(cfg)
	if err != nil {
		return err
	}
	defer camera.Close()

	detector, err := openFaceDetector(cfg)
	if err != nil {
		return err
	}
	defer detector.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	count := mustGetInt(cmd, "count")
	fmt.Printf("Capturing %d faces of %s, press Ctrl+C to stop\n", count, label)

	saved, err := vision.CaptureFaces(ctx, camera, detector, vision.CaptureOptions{
		Dir:      mustGetString(cmd, "dir"),
		Label:    label,
		Count:    count,
		Interval: mustGetDuration(cmd, "interval"),
		OnSave: func(path string) {
			fmt.Printf("  saved %s\n", path)
		},
	})
	fmt.Printf("Saved %d of %d face crops\n", saved, count)
	return err
}
