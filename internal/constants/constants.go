// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// DefaultK is the number of nearest neighbors that vote on a label
	DefaultK = 3

	// DefaultRecognitionWorkers is the default number of regions classified in parallel per frame
	DefaultRecognitionWorkers = 4
)

// Attendance constants
const (
	// TimestampLayout is the attendance log timestamp format (YYYY-MM-DD HH:MM:SS)
	TimestampLayout = "2006-01-02 15:04:05"

	// DateLayout is the layout accepted by date filters (YYYY-MM-DD)
	DateLayout = "2006-01-02"
)

// Capture constants
const (
	// DefaultCaptureCount is the number of face crops collected per person
	DefaultCaptureCount = 30

	// DefaultCaptureIntervalMs is the pause between two saved crops in milliseconds
	DefaultCaptureIntervalMs = 300

	// CaptureJPEGQuality is the JPEG quality used for saved face crops
	CaptureJPEGQuality = 95
)

// Preparation constants
const (
	// DuplicateHashDistance is the largest difference hash distance at which two training
	// images of one label count as the same capture
	DuplicateHashDistance = 4
)
