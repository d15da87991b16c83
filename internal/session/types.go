package session

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/kozaktomas/face-attendance/internal/dataset"
)

var (
	// ErrDeviceUnavailable is returned by a FrameSource that can no longer produce frames.
	// It stops the session.
	ErrDeviceUnavailable = errors.New("frame source unavailable")

	// ErrSessionClosed is returned when starting a session that was already started.
	ErrSessionClosed = errors.New("session already used")

	// ErrNotRunning is returned by operations that need a running session.
	ErrNotRunning = errors.New("session is not running")
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Frame is one image produced by a FrameSource.
type Frame struct {
	Seq        int
	Image      image.Image
	CapturedAt time.Time
}

// FrameSource produces frames. Next returns io.EOF when a finite source is exhausted
// and ErrDeviceUnavailable when the device fails.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Detector finds face regions in an image. Returned rectangles lie within img.Bounds().
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error)
}

// Normalizer turns a face region into a feature vector of the dataset dimension.
type Normalizer interface {
	Normalize(img image.Image, region image.Rectangle) (dataset.FeatureVector, error)
}

// Status is the result of one recognition attempt.
type Status string

const (
	StatusMarked        Status = "marked"
	StatusAlreadyMarked Status = "already_marked"
	StatusSkipped       Status = "skipped"
	StatusFailed        Status = "failed"
)

// Outcome describes what happened to one face region or query vector.
type Outcome struct {
	Region   image.Rectangle
	Label    string
	Distance float64
	Status   Status
	Err      error
}

// Stats counts session activity.
type Stats struct {
	Frames        int `json:"frames"`
	Regions       int `json:"regions"`
	Marked        int `json:"marked"`
	AlreadyMarked int `json:"already_marked"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

func (s *Stats) add(o Outcome) {
	s.Regions++
	switch o.Status {
	case StatusMarked:
		s.Marked++
	case StatusAlreadyMarked:
		s.AlreadyMarked++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}
