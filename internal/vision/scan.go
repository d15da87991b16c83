package vision

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// LabeledImage is one training image found under a dataset root.
type LabeledImage struct {
	Label string
	Path  string
}

// ScanLabeledImages lists root/<label>/<image> files. Labels and files are sorted by name
// so the produced dataset is reproducible.
func ScanLabeledImages(root string) ([]LabeledImage, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read dataset root: %w", err)
	}

	var images []LabeledImage
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, d.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", d.Name(), err)
		}
		for _, f := range files {
			if f.IsDir() || !IsImageFile(f.Name()) {
				continue
			}
			images = append(images, LabeledImage{Label: d.Name(), Path: filepath.Join(root, d.Name(), f.Name())})
		}
	}

	slices.SortFunc(images, func(a, b LabeledImage) int {
		return cmp.Or(cmp.Compare(a.Label, b.Label), cmp.Compare(a.Path, b.Path))
	})
	return images, nil
}
