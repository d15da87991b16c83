package vision

import (
	"context"
	"image"
)

// WholeFrameDetector reports the whole frame as one face. It serves sources that
// already deliver cropped faces, such as a directory of captured training images.
type WholeFrameDetector struct{}

// Detect implements session.Detector.
func (WholeFrameDetector) Detect(_ context.Context, img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}
	return []image.Rectangle{b}, nil
}
