package renderer

import (
	"image"

	"github.com/ivlev/timefade/internal/effects"
	"github.com/ivlev/timefade/internal/fade"
)

// Source produces the frames of one timeline. Render paints frame f into
// dst, whose column 0 is canvas column originX; dst may be narrower than
// the canvas.
type Source interface {
	TotalFrames() int
	Width() int
	Height() int
	Render(dst *image.RGBA, f, originX int)
}

// RenderFrame paints one gradient per consecutive boundary pair. A
// segment narrower than a pixel is widened to one, clipped to width.
func RenderFrame(dst *image.RGBA, originX, width int, boundaries []int, colors []fade.Colors) {
	for j := 0; j+1 < len(boundaries); j++ {
		x0, x1 := boundaries[j], boundaries[j+1]
		if x1 <= x0 {
			x1 = x0 + 1
		}
		x0, x1 = max(x0, 0), min(x1, width)
		if x0 >= x1 {
			continue
		}
		fade.PaintGradient(dst, originX, x0, x1, colors[j], colors[j+1])
	}
}

// Morph moves the boundaries along their splines. With a table it reads
// precomputed rows; without one every frame is evaluated fresh.
type Morph struct {
	model *Model
	table *Table
}

func NewMorph(m *Model, t *Table) *Morph {
	return &Morph{model: m, table: t}
}

func (s *Morph) TotalFrames() int { return s.model.TotalFrames() }
func (s *Morph) Width() int       { return s.model.Width() }
func (s *Morph) Height() int      { return s.model.Height() }

func (s *Morph) Render(dst *image.RGBA, f, originX int) {
	var b []int
	if s.table != nil {
		b = s.table.At(f)
	} else {
		b = s.model.FrameBoundaries(f)
	}
	RenderFrame(dst, originX, s.model.Width(), b, s.model.Colors(f))
}

// Dissolve crossfades the finished keyframe images without moving any
// boundary.
type Dissolve struct {
	model *Model
}

func NewDissolve(m *Model) *Dissolve {
	return &Dissolve{model: m}
}

func (s *Dissolve) TotalFrames() int { return s.model.TotalFrames() }
func (s *Dissolve) Width() int       { return s.model.Width() }
func (s *Dissolve) Height() int      { return s.model.Height() }

func (s *Dissolve) Render(dst *image.RGBA, f, originX int) {
	i, local := s.model.Bracket(f)
	a, b := s.model.Keyframes[i].Image, s.model.Keyframes[i+1].Image
	effects.Crossfade(dst, a, b, local, originX)
}
