package vision

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-attendance/internal/dataset"
)

// ErrEmptyRegion is returned when a face region does not overlap the image.
var ErrEmptyRegion = errors.New("empty face region")

// Normalizer converts a face region into a size×size grayscale feature vector:
// grayscale first, then a bilinear resize, then row-major flattening of 0-255 intensities.
type Normalizer struct {
	size int
}

// NewNormalizer creates a normalizer producing vectors of length size*size.
func NewNormalizer(size int) (*Normalizer, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid face size %d", size)
	}
	return &Normalizer{size: size}, nil
}

// Size returns the side of the normalized crop.
func (n *Normalizer) Size() int {
	return n.size
}

// Dim returns the feature vector length.
func (n *Normalizer) Dim() int {
	return n.size * n.size
}

// Normalize implements session.Normalizer.
func (n *Normalizer) Normalize(img image.Image, region image.Rectangle) (dataset.FeatureVector, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	return Flatten(n.Resize(Grayscale(img, region))), nil
}

// NormalizeImage normalizes the whole image, as used for pre-cropped faces.
func (n *Normalizer) NormalizeImage(img image.Image) (dataset.FeatureVector, error) {
	return n.Normalize(img, img.Bounds())
}

// Resize scales gray to size×size.
func (n *Normalizer) Resize(gray *image.Gray) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, n.size, n.size))
	draw.BiLinear.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return dst
}

// Grayscale converts the region of img to 8-bit gray.
func Grayscale(img image.Image, region image.Rectangle) *image.Gray {
	gray := image.NewGray(region)
	draw.Copy(gray, region.Min, img, region, draw.Src, nil)
	return gray
}

// Flatten returns the intensities of gray in row-major order.
func Flatten(gray *image.Gray) dataset.FeatureVector {
	b := gray.Bounds()
	out := make(dataset.FeatureVector, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, p := range row {
			out = append(out, float64(p))
		}
	}
	return out
}
