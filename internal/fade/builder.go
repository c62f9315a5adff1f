package fade

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/analyzer"
	"github.com/ivlev/timefade/internal/config"
	"github.com/ivlev/timefade/internal/source"
)

// ErrInsufficientInput means there is nothing to fade: fewer than two
// images, or every transition weighs zero.
var ErrInsufficientInput = errors.New("insufficient input")

// Label names the image starting at a boundary.
type Label struct {
	Name  string
	Proxy bool
}

// Result is one finished fade. Treat it as read-only once built; it is
// shared between the cache and every consumer.
type Result struct {
	Image       *image.RGBA
	Boundaries  []int // strictly increasing segment starts plus a final width-1
	Labels      []Label
	Colors      []analyzer.Column // row averages, one per source image
	Transitions []float64         // raw pair weights before layout
	Width       int
	Height      int
}

func (r *Result) Segments() int { return len(r.Boundaries) - 1 }

// Builder composes fades from images supplied by its Loader.
type Builder struct {
	Loader source.Loader
}

func NewBuilder(l source.Loader) *Builder {
	return &Builder{Loader: l}
}

// Build lays out and paints the fade of the given ordered images.
func (b *Builder) Build(paths []string, brightness []int, proxies []bool, p config.FadeParams) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(brightness) != len(paths) || len(proxies) != len(paths) {
		return nil, fmt.Errorf("%w: %d paths, %d brightness values, %d proxy flags",
			config.ErrInvalidParameters, len(paths), len(brightness), len(proxies))
	}
	if len(paths) < 2 {
		return nil, fmt.Errorf("%w: %d active images", ErrInsufficientInput, len(paths))
	}

	colors := make([]analyzer.Column, len(paths))
	for i, path := range paths {
		colors[i] = analyzer.RowAverage(b.prepare(path, p.Height))
	}

	weights := Transitions(brightness, p)
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: all transitions weigh zero", ErrInsufficientInput)
	}

	widths := visible(Allocate(IdealWidths(weights, p.Width, p.Damping), p.Width))

	res := &Result{
		Image:       image.NewRGBA(image.Rect(0, 0, p.Width, p.Height)),
		Boundaries:  make([]int, 0, len(paths)),
		Labels:      make([]Label, 0, len(paths)),
		Colors:      colors,
		Transitions: weights,
		Width:       p.Width,
		Height:      p.Height,
	}

	x := 0
	for i, w := range widths {
		PaintGradient(res.Image, 0, x, x+w, ToColors(colors[i]), ToColors(colors[i+1]))
		res.Boundaries = append(res.Boundaries, x)
		res.Labels = append(res.Labels, Label{Name: filepath.Base(paths[i]), Proxy: proxies[i]})
		x += w
	}
	res.Boundaries = append(res.Boundaries, p.Width-1)
	res.Labels = append(res.Labels, Label{Name: filepath.Base(paths[len(paths)-1]), Proxy: proxies[len(proxies)-1]})

	return res, nil
}

// prepare loads path and scales it to height, keeping the aspect ratio.
// Unreadable images become a black 10x10 stand-in.
func (b *Builder) prepare(path string, height int) image.Image {
	img, err := b.Loader.Load(path)
	if err != nil {
		log.WithField("path", path).Warnf("[!] load failed, using black placeholder: %v", err)
		img = source.Black(10, 10)
	}
	bounds := img.Bounds()
	if bounds.Dy() == height {
		return img
	}
	ratio := float64(height) / float64(bounds.Dy())
	w := max(1, int(float64(bounds.Dx())*ratio))
	return imaging.Resize(img, w, height, imaging.Linear)
}
