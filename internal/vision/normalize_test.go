package vision

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestNormalizer_Normalize(t *testing.T) {
	n, err := NewNormalizer(4)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		img    image.Image
		region image.Rectangle
		want   float64
	}{
		{"uniform gray", uniformGray(20, 20, 200), image.Rect(0, 0, 20, 20), 200},
		{"sub region", uniformGray(50, 30, 17), image.Rect(10, 5, 30, 25), 17},
		{"white rgba", image.NewUniform(color.White), image.Rect(0, 0, 8, 8), 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := n.Normalize(tt.img, tt.region)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(vec) != n.Dim() {
				t.Fatalf("len = %d, want %d", len(vec), n.Dim())
			}
			for i, v := range vec {
				if v != tt.want {
					t.Fatalf("vec[%d] = %v, want %v", i, v, tt.want)
				}
			}
		})
	}
}

func TestNormalizer_RowMajor(t *testing.T) {
	n, err := NewNormalizer(2)
	if err != nil {
		t.Fatal(err)
	}
	// 2x2 image is copied without interpolation
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Pix = []uint8{1, 2, 3, 4}

	vec, err := n.NormalizeImage(img)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec = %v, want %v", vec, want)
			break
		}
	}
}

func TestNormalizer_Errors(t *testing.T) {
	if _, err := NewNormalizer(0); err == nil {
		t.Error("expected error for size 0")
	}
	n, _ := NewNormalizer(3)
	_, err := n.Normalize(uniformGray(10, 10, 1), image.Rect(20, 20, 30, 30))
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("error = %v, want ErrEmptyRegion", err)
	}
}

func TestFlatten_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.Pix = []uint8{1, 2, 3, 4, 5, 6}
	sub := img.SubImage(image.Rect(1, 0, 3, 2)).(*image.Gray)

	got := Flatten(sub)
	want := []float64{2, 3, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
