package engine

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/timefade/internal/analyzer"
	"github.com/ivlev/timefade/internal/fade"
	"github.com/ivlev/timefade/internal/source"
)

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 10))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 255
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTimeline(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "day1", "UTC+1_fading.png"), color.RGBA{200, 0, 0, 255})
	writePNG(t, filepath.Join(root, "day1", "UTC+2_fading.png"), color.RGBA{0, 200, 0, 255})
	writePNG(t, filepath.Join(root, "day2", "UTC+1_fading.png"), color.RGBA{180, 20, 0, 255})
	writePNG(t, filepath.Join(root, "day10", "UTC+2_fading.png"), color.RGBA{0, 0, 200, 255})
	writePNG(t, filepath.Join(root, "day10", "UTC+3_fading.png"), color.RGBA{90, 90, 90, 255})

	cfg := testConfig(t, 40)
	cfg.Height = 10
	cfg.InputPath = root
	cfg.PlaceholderDir = t.TempDir()
	cfg.Steps = 5

	tl, err := LoadTimeline(cfg, source.FileLoader{})
	if err != nil {
		t.Fatalf("LoadTimeline failed: %v", err)
	}
	if got := len(tl.Keyframes); got != 3 {
		t.Fatalf("%d keyframes, want 3", got)
	}
	if tl.Names[0] != "day1" || tl.Names[1] != "day2" || tl.Names[2] != "day10" {
		t.Errorf("names = %v", tl.Names)
	}
	for i, kf := range tl.Keyframes {
		if len(kf.Boundaries) != 3 {
			t.Errorf("keyframe %d has %d boundaries, want 3", i, len(kf.Boundaries))
		}
	}
	// UTC+3 exists only in the last bucket, so day1 borrows it
	if !tl.Keyframes[0].Labels[2].Proxy || tl.Keyframes[2].Labels[2].Proxy {
		t.Errorf("labels = %v / %v", tl.Keyframes[0].Labels, tl.Keyframes[2].Labels)
	}
	if tl.Model.TotalFrames() != 10 {
		t.Errorf("TotalFrames = %d, want 10", tl.Model.TotalFrames())
	}
}

func TestLoadTimelineNeedsTwoBuckets(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "only", "UTC+1_fading.png"), color.RGBA{200, 0, 0, 255})
	writePNG(t, filepath.Join(root, "only", "UTC+2_fading.png"), color.RGBA{0, 200, 0, 255})

	cfg := testConfig(t, 40)
	cfg.InputPath = root
	cfg.PlaceholderDir = t.TempDir()
	if _, err := LoadTimeline(cfg, source.FileLoader{}); !errors.Is(err, fade.ErrInsufficientInput) {
		t.Errorf("got %v", err)
	}
}

func TestFilterOffsets(t *testing.T) {
	mk := func(b ...int) []analyzer.ImageRef {
		out := make([]analyzer.ImageRef, len(b))
		for i, v := range b {
			out[i] = analyzer.ImageRef{Brightness: v, Active: true}
		}
		return out
	}
	refs := [][]analyzer.ImageRef{mk(5, 100, 3), mk(7, 4, 200)}
	filterOffsets(refs, 10)

	want := []bool{false, true, true}
	for _, r := range refs {
		for j, ref := range r {
			if ref.Active != want[j] {
				t.Errorf("offset %d active = %v, want %v", j, ref.Active, want[j])
			}
		}
	}
}
