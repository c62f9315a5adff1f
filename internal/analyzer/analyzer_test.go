package analyzer

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		name  string
		c     color.RGBA
		gamma float64
		want  int
	}{
		{"black", color.RGBA{0, 0, 0, 255}, 2, 0},
		{"white", color.RGBA{255, 255, 255, 255}, 2, 255},
		{"gray gamma 1", color.RGBA{128, 128, 128, 255}, 1, 128},
		{"gray gamma 2", color.RGBA{128, 128, 128, 255}, 2, 64},
		{"pure red gamma 1", color.RGBA{255, 0, 0, 255}, 1, 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Brightness(uniform(8, 4, tt.c), tt.gamma); got != tt.want {
				t.Errorf("Brightness = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBrightnessMonotonicInGamma(t *testing.T) {
	img := uniform(4, 4, color.RGBA{100, 150, 200, 255})
	prev := 256
	for _, g := range []float64{0.5, 1, 1.5, 2, 3, 5} {
		b := Brightness(img, g)
		if b > prev {
			t.Errorf("gamma %v gave %d, larger than %d", g, b, prev)
		}
		prev = b
	}
}

func TestBrightnessGenericPath(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}
	if got := Brightness(gray, 1); got != 200 {
		t.Errorf("gray image brightness %d, want 200", got)
	}
}

func TestRowAverage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{10, 20, 30, 255})
	img.SetRGBA(1, 0, color.RGBA{11, 21, 31, 255})
	img.SetRGBA(0, 1, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 1, color.RGBA{0, 0, 255, 255})

	col := RowAverage(img)
	if len(col) != 2 {
		t.Fatalf("got %d rows", len(col))
	}
	if col[0] != (RGB{10, 20, 30}) {
		t.Errorf("row 0 = %v (mean must truncate)", col[0])
	}
	if col[1] != (RGB{127, 0, 127}) {
		t.Errorf("row 1 = %v", col[1])
	}
}

type mapLoader map[string]image.Image

func (m mapLoader) Load(path string) (image.Image, error) {
	if img, ok := m[path]; ok {
		return img, nil
	}
	return nil, errors.New("not found")
}

func TestMeasureAndFilter(t *testing.T) {
	l := mapLoader{
		"dark":   uniform(2, 2, color.RGBA{20, 20, 20, 255}),
		"bright": uniform(2, 2, color.RGBA{220, 220, 220, 255}),
	}
	refs := []ImageRef{
		{Path: "dark", Active: true},
		{Path: "bright", Active: true},
		{Path: "missing", Active: true, Proxy: true},
	}
	Measure(l, refs, 1)
	if refs[0].Brightness != 20 || refs[1].Brightness != 220 || refs[2].Brightness != 0 {
		t.Fatalf("brightness = %d %d %d", refs[0].Brightness, refs[1].Brightness, refs[2].Brightness)
	}

	FilterByBrightness(refs, 50)
	paths, br, px := Active(refs)
	if len(paths) != 1 || paths[0] != "bright" || br[0] != 220 || px[0] {
		t.Errorf("active after filter: %v %v %v", paths, br, px)
	}

	ResetFilter(refs)
	if paths, _, _ := Active(refs); len(paths) != 3 {
		t.Errorf("reset left %d active", len(paths))
	}
}
