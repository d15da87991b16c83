package vision

import (
	"image"
	"slices"
)

// IoU calculates Intersection over Union between two rectangles.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	intersection := area(inter)
	union := area(a) + area(b) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// MergeOverlapping drops detections that overlap a larger one by more than threshold IoU.
// The result is ordered largest first.
func MergeOverlapping(rects []image.Rectangle, threshold float64) []image.Rectangle {
	sorted := slices.Clone(rects)
	slices.SortStableFunc(sorted, func(a, b image.Rectangle) int {
		return area(b) - area(a)
	})

	kept := make([]image.Rectangle, 0, len(sorted))
	for _, r := range sorted {
		if r.Empty() {
			continue
		}
		duplicate := false
		for _, k := range kept {
			if IoU(r, k) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, r)
		}
	}
	return kept
}
