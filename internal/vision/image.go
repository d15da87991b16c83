// Package vision adapts images and capture devices to the recognition session:
// decoding, grayscale normalization, frame sources and face detectors.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// DecodeImage decodes a JPEG, PNG, BMP or WebP image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeImageBytes is DecodeImage for an in-memory image.
func DecodeImageBytes(data []byte) (image.Image, error) {
	return DecodeImage(bytes.NewReader(data))
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // caller controls the path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// SaveJPEG writes img to path as a JPEG.
func SaveJPEG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.CaptureJPEGQuality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644) //nolint:gosec // captures are not secret
}

// Crop returns the part of img inside region, sharing pixels when the image supports it.
func Crop(img image.Image, region image.Rectangle) image.Image {
	region = region.Intersect(img.Bounds())
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(region)
	}
	dst := image.NewRGBA(region)
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			dst.Set(x, y, img.At(x, y))
		}
	}
	return dst
}
