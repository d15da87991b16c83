//go:build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/face-attendance/internal/session"
)

// CameraSource reads frames from a local video device through OpenCV.
type CameraSource struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     int
}

// OpenCamera opens video device id.
func OpenCamera(id int) (*CameraSource, error) {
	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("%w: open camera %d: %w", session.ErrDeviceUnavailable, id, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: camera %d is not opened", session.ErrDeviceUnavailable, id)
	}
	return &CameraSource{capture: capture, mat: gocv.NewMat()}, nil
}

// Next implements session.FrameSource.
func (c *CameraSource) Next(ctx context.Context) (session.Frame, error) {
	if err := ctx.Err(); err != nil {
		return session.Frame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return session.Frame{}, fmt.Errorf("%w: failed to capture frame", session.ErrDeviceUnavailable)
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return session.Frame{}, fmt.Errorf("convert frame: %w", err)
	}
	c.seq++
	return session.Frame{Seq: c.seq, Image: img, CapturedAt: time.Now()}, nil
}

// Close releases the device.
func (c *CameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mat.Close()
	return c.capture.Close()
}

// CascadeDetector finds faces with an OpenCV Haar cascade.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the cascade XML at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade file %s", path)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect implements session.Detector.
func (d *CascadeDetector) Detect(_ context.Context, img image.Image) ([]image.Rectangle, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	d.mu.Lock()
	rects := d.classifier.DetectMultiScale(mat)
	d.mu.Unlock()

	return MergeOverlapping(rects, 0.5), nil
}

// Close releases the cascade.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}
