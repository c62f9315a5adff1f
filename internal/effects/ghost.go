package effects

import "image"

// Frames is anything that can paint frame f of a timeline into dst,
// dst's column 0 being canvas column originX.
type Frames interface {
	TotalFrames() int
	Width() int
	Height() int
	Render(dst *image.RGBA, f, originX int)
}

// Ghost averages every frame with the Count frames before it. Each
// output frame renders its whole window again, so wrap a source that
// computes frames on demand rather than one reading a cached table.
type Ghost struct {
	Frames Frames
	Count  int
}

func NewGhost(src Frames, count int) *Ghost {
	return &Ghost{Frames: src, Count: count}
}

func (g *Ghost) TotalFrames() int { return g.Frames.TotalFrames() }
func (g *Ghost) Width() int       { return g.Frames.Width() }
func (g *Ghost) Height() int      { return g.Frames.Height() }

func (g *Ghost) Render(dst *image.RGBA, f, originX int) {
	if g.Count <= 0 {
		g.Frames.Render(dst, f, originX)
		return
	}
	lo := max(0, f-g.Count)
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()

	acc := make([]uint32, w*h*4)
	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	for k := lo; k <= f; k++ {
		g.Frames.Render(scratch, k, originX)
		for i, v := range scratch.Pix {
			acc[i] += uint32(v)
		}
	}

	n := uint32(f - lo + 1)
	for y := 0; y < h; y++ {
		row := dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y+y):]
		src := acc[y*w*4 : (y+1)*w*4]
		for i, v := range src {
			row[i] = uint8((v + n/2) / n)
		}
	}
}
