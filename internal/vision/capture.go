package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kozaktomas/face-attendance/internal/dataset"
	"github.com/kozaktomas/face-attendance/internal/session"
)

// CaptureOptions configures CaptureFaces.
type CaptureOptions struct {
	Dir      string // dataset root; crops go to Dir/Label
	Label    string
	Count    int           // stop after this many crops
	Interval time.Duration // pause after every saved crop
	OnSave   func(path string)
}

// CaptureFaces saves face crops detected in frames from src as Dir/Label/<n>.jpg, numbered from 1.
// It stops after Count crops, when src is exhausted or when ctx is done, and returns the
// number of crops saved.
func CaptureFaces(ctx context.Context, src session.FrameSource, det session.Detector, opts CaptureOptions) (int, error) {
	if err := dataset.ValidateLabel(opts.Label); err != nil {
		return 0, err
	}
	if opts.Count < 1 {
		return 0, fmt.Errorf("invalid capture count %d", opts.Count)
	}
	dir := filepath.Join(opts.Dir, opts.Label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create capture dir: %w", err)
	}

	saved := 0
	for saved < opts.Count {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return saved, nil
		}
		if err != nil {
			return saved, err
		}

		regions, err := det.Detect(ctx, frame.Image)
		if err != nil {
			return saved, fmt.Errorf("detect faces in frame %d: %w", frame.Seq, err)
		}
		for _, r := range regions {
			if saved >= opts.Count {
				break
			}
			path := filepath.Join(dir, strconv.Itoa(saved+1)+".jpg")
			if err := SaveJPEG(path, Crop(frame.Image, r)); err != nil {
				return saved, err
			}
			saved++
			if opts.OnSave != nil {
				opts.OnSave(path)
			}
			if err := sleep(ctx, opts.Interval); err != nil {
				return saved, nil
			}
		}
	}
	return saved, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
