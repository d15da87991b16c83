package vision

import (
	"image"
	"math/bits"

	"golang.org/x/image/draw"
)

// DifferenceHash computes a 64-bit difference hash (dHash) of img. The image is reduced to
// 9x8 gray pixels and every bit records whether a pixel is brighter than its right neighbor,
// so the hash survives small changes in exposure and scale.
func DifferenceHash(img image.Image) uint64 {
	gray := Grayscale(img, img.Bounds())
	small := image.NewGray(image.Rect(0, 0, 9, 8))
	draw.BiLinear.Scale(small, small.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	var hash uint64
	bit := 63
	for y := range 8 {
		for x := range 8 {
			if small.GrayAt(x, y).Y > small.GrayAt(x+1, y).Y {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// HashDistance returns the Hamming distance between two hashes.
func HashDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// DuplicateFilter remembers image hashes per label and reports near-duplicates.
type DuplicateFilter struct {
	threshold int
	seen      map[string][]uint64
}

// NewDuplicateFilter creates a filter that treats hashes within threshold bits as duplicates.
func NewDuplicateFilter(threshold int) *DuplicateFilter {
	return &DuplicateFilter{threshold: threshold, seen: make(map[string][]uint64)}
}

// Seen reports whether label already has an image like img; otherwise img is remembered.
func (f *DuplicateFilter) Seen(label string, img image.Image) bool {
	hash := DifferenceHash(img)
	for _, h := range f.seen[label] {
		if HashDistance(h, hash) <= f.threshold {
			return true
		}
	}
	f.seen[label] = append(f.seen[label], hash)
	return false
}
