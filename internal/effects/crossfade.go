package effects

import "image"

// Crossfade writes (1-alpha)*a + alpha*b into dst. a and b are full
// canvases; dst covers the canvas columns starting at originX. Pixels
// outside a or b stay untouched.
func Crossfade(dst, a, b *image.RGBA, alpha float64, originX int) {
	alpha = max(0, min(1, alpha))
	db := dst.Bounds()
	area := a.Bounds().Intersect(b.Bounds())
	for y := db.Min.Y; y < db.Max.Y; y++ {
		cy := y - db.Min.Y
		for x := db.Min.X; x < db.Max.X; x++ {
			cx := originX + x - db.Min.X
			if !image.Pt(cx, cy).In(area) {
				continue
			}
			d := dst.PixOffset(x, y)
			pa, pb := a.PixOffset(cx, cy), b.PixOffset(cx, cy)
			for ch := 0; ch < 3; ch++ {
				dst.Pix[d+ch] = mix(a.Pix[pa+ch], b.Pix[pb+ch], alpha)
			}
			dst.Pix[d+3] = 255
		}
	}
}

func mix(a, b uint8, alpha float64) uint8 {
	switch alpha {
	case 0:
		return a
	case 1:
		return b
	}
	v := float64(a) + (float64(b)-float64(a))*alpha
	return uint8(v + 0.5)
}
