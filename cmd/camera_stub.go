//go:build !gocv

package cmd

import (
	"github.com/kozaktomas/face-attendance/internal/config"
)

const cameraSupported = false

func openCamera(*config.Config) (cameraSource, error) {
	return nil, errNoCamera
}

func openFaceDetector(*config.Config) (faceDetector, error) {
	return nil, errNoCamera
}
