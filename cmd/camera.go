package cmd

import (
	"errors"
	"io"

	"github.com/kozaktomas/face-attendance/internal/session"
)

var errNoCamera = errors.New("camera support is not compiled in, rebuild with -tags gocv or use --frames")

type cameraSource interface {
	session.FrameSource
	io.Closer
}

type faceDetector interface {
	session.Detector
	io.Closer
}
