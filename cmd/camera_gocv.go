//go:build gocv

package cmd

import (
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/vision"
)

const cameraSupported = true

func openCamera(cfg *config.Config) (cameraSource, error) {
	return vision.OpenCamera(cfg.Capture.CameraDevice)
}

func openFaceDetector(cfg *config.Config) (faceDetector, error) {
	return vision.NewCascadeDetector(cfg.Capture.CascadePath)
}
