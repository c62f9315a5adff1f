package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader supplies decoded rasters by path.
type Loader interface {
	Load(path string) (image.Image, error)
}

// FileLoader decodes images from disk.
type FileLoader struct{}

func (FileLoader) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Black returns a solid black w×h raster.
func Black(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{A: 255}}, image.Point{}, draw.Src)
	return img
}

// Placeholders writes one small black PNG per missing offset and
// hands out its path on every later request.
type Placeholders struct {
	Dir string

	mu    sync.Mutex
	paths map[Offset]string
}

func NewPlaceholders(dir string) *Placeholders {
	return &Placeholders{Dir: dir, paths: make(map[Offset]string)}
}

func (p *Placeholders) Path(o Offset) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if path, ok := p.paths[o]; ok {
		return path, nil
	}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(p.Dir, dummyName(o))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, Black(10, 10)); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	p.paths[o] = path
	return path, nil
}
