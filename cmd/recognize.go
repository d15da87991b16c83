package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/session"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run a recognition session and mark attendance",
	Long: `Run one recognition session. Every face found in a frame is classified with
k-nearest-neighbors against the dataset and the first sighting of each person is
appended to the attendance log.

Frames come from the camera (gocv builds) or, with --frames, from a directory of
pre-cropped face images processed in name order. Stop with Ctrl+C.

Examples:
  face-attendance recognize
  face-attendance recognize --frames incoming/ --json`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().String("frames", "", "Directory of face images to use instead of the camera")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

// RecognizeResult summarizes a finished session
type RecognizeResult struct {
	SessionID string          `json:"session_id"`
	Stats     session.Stats   `json:"stats"`
	Records   []RecordSummary `json:"records"`
}

// RecordSummary is one attendance record in command output
type RecordSummary struct {
	Label      string `json:"label"`
	ObservedAt string `json:"observed_at"`
}

// newSession loads the dataset and the attendance backend and creates an idle session.
func newSession(ctx context.Context, cfg *config.Config, detector session.Detector) (*session.Session, error) {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	normalizer, err := vision.NewNormalizer(cfg.Recognition.FaceSize)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(ds, normalizer.Dim()); err != nil {
		return nil, err
	}
	store, err := openAttendanceStore(cfg)
	if err != nil {
		return nil, err
	}

	return session.New(session.Config{
		Dataset:    ds,
		K:          cfg.Recognition.K,
		Workers:    cfg.Recognition.Workers,
		Store:      store,
		Detector:   detector,
		Normalizer: normalizer,
		Logger:     log.NewEntry(log.StandardLogger()),
	})
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	framesDir := mustGetString(cmd, "frames")
	jsonOutput := mustGetBool(cmd, "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		src      session.FrameSource
		detector session.Detector
	)
	if framesDir != "" {
		dirSource, err := vision.NewDirSource(framesDir, log.WithField("frames", framesDir))
		if err != nil {
			return err
		}
		src, detector = dirSource, vision.WholeFrameDetector{}
	} else {
		camera, err := openCamera(cfg)
		if err != nil {
			return err
		}
		defer camera.Close()
		cascade, err := openFaceDetector(cfg)
		if err != nil {
			return err
		}
		defer cascade.Close()
		src, detector = camera, cascade
	}

	s, err := newSession(ctx, cfg, detector)
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	if !jsonOutput {
		fmt.Printf("Session %s started, logging attendance to %s\n", s.ID(), describeAttendanceStore(cfg))
		if framesDir == "" {
			fmt.Println("Press Ctrl+C to stop")
		}
	}

	runErr := s.Run(ctx, src)

	result := RecognizeResult{SessionID: s.ID(), Stats: s.Stats()}
	for _, r := range s.Records() {
		result.Records = append(result.Records, RecordSummary{
			Label:      r.Label,
			ObservedAt: r.ObservedAt.Format(constants.TimestampLayout),
		})
	}

	if jsonOutput {
		if err := outputJSON(result); err != nil {
			return err
		}
	} else {
		printRecognizeSummary(result)
	}
	return runErr
}

func printRecognizeSummary(r RecognizeResult) {
	fmt.Printf("\nSession %s finished\n", r.SessionID)
	fmt.Printf("  Frames:         %d\n", r.Stats.Frames)
	fmt.Printf("  Faces:          %d\n", r.Stats.Regions)
	fmt.Printf("  Marked:         %d\n", r.Stats.Marked)
	fmt.Printf("  Already marked: %d\n", r.Stats.AlreadyMarked)
	fmt.Printf("  Skipped:        %d\n", r.Stats.Skipped)
	fmt.Printf("  Failed writes:  %d\n", r.Stats.Failed)
	if len(r.Records) == 0 {
		return
	}
	fmt.Println("\nPresent:")
	for _, rec := range r.Records {
		fmt.Printf("  %s  %s\n", rec.ObservedAt, rec.Label)
	}
}
