package constants

// HTTP API constants
const (
	// MaxRecognizeVectors is the maximum number of vectors accepted by one recognize request
	MaxRecognizeVectors = 64

	// MaxFrameUploadSize is the maximum frame upload size in bytes (20MB)
	MaxFrameUploadSize = 20 << 20

	// MaxRecognizeBodySize caps JSON recognize bodies (vectors of 10000 floats add up quickly)
	MaxRecognizeBodySize = 64 << 20
)
