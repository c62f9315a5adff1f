package main

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/timefade/internal/bucket"
	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/source"
)

type memLoader map[string]image.Image

func (m memLoader) Load(path string) (image.Image, error) {
	if img, ok := m[path]; ok {
		return img, nil
	}
	return nil, errors.New("no such image")
}

func gray(v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

func TestSaveFadesSkipsThinBucket(t *testing.T) {
	l := memLoader{
		"thin/UTC+1.png": gray(120),
		"full/UTC+1.png": gray(60),
		"full/UTC+2.png": gray(200),
	}
	buckets := []bucket.Bucket{
		bucket.New("thin", []bucket.Entry{{Offset: source.OffsetFromHours(1), Path: "thin/UTC+1.png"}}),
		bucket.New("full", []bucket.Entry{
			{Offset: source.OffsetFromHours(1), Path: "full/UTC+1.png"},
			{Offset: source.OffsetFromHours(2), Path: "full/UTC+2.png"},
		}),
	}
	c := config.Default()
	c.Width, c.Height = 40, 6
	dir := t.TempDir()

	saved, err := saveFades(c, l, buckets, []string{"thin", "full"}, dir)
	if err != nil {
		t.Fatalf("a thin bucket must not stop the run: %v", err)
	}
	want := filepath.Join(dir, "full_"+c.FadeParams.Tag()+".png")
	if len(saved) != 1 || saved[0] != want {
		t.Fatalf("saved = %v, want [%s]", saved, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Error(err)
	}
}

func TestSaveFadesUnknownBucket(t *testing.T) {
	c := config.Default()
	if _, err := saveFades(c, memLoader{}, nil, []string{"nowhere"}, t.TempDir()); err == nil {
		t.Error("expected an error for a bucket outside the range")
	}
}
