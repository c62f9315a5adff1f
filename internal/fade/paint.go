package fade

import (
	"image"

	"github.com/ivlev/timefade/internal/analyzer"
)

// Vec is a color with fractional channels.
type Vec [3]float64

// Colors is one fractional color per image row.
type Colors []Vec

// ToColors widens an 8-bit column.
func ToColors(c analyzer.Column) Colors {
	out := make(Colors, len(c))
	for i, v := range c {
		out[i] = Vec{float64(v[0]), float64(v[1]), float64(v[2])}
	}
	return out
}

// LerpColors blends a toward b by t, row by row.
func LerpColors(a, b Colors, t float64) Colors {
	out := make(Colors, len(a))
	for i := range a {
		for ch := 0; ch < 3; ch++ {
			out[i][ch] = a[i][ch] + (b[i][ch]-a[i][ch])*t
		}
	}
	return out
}

// PaintGradient fills canvas columns [x0,x1) of dst with a horizontal
// blend from left to right; dst's column 0 sits at canvas x originX.
// Column x gets t = (x-x0)/(x1-x0-1), so a segment starts exactly at
// left and ends exactly at right. Channels are truncated.
func PaintGradient(dst *image.RGBA, originX, x0, x1 int, left, right Colors) {
	w := x1 - x0
	if w <= 0 {
		return
	}
	b := dst.Bounds()
	lo, hi := max(x0, originX+b.Min.X), min(x1, originX+b.Max.X)
	if lo >= hi {
		return
	}

	ts := make([]float64, hi-lo)
	for i := range ts {
		if w > 1 {
			ts[i] = float64(lo+i-x0) / float64(w-1)
		}
	}

	rows := min(b.Dy(), len(left), len(right))
	for y := 0; y < rows; y++ {
		l, r := left[y], right[y]
		off := dst.PixOffset(lo-originX, b.Min.Y+y)
		px := dst.Pix[off : off+len(ts)*4]
		for i, t := range ts {
			j := i * 4
			px[j] = channel(l[0] + (r[0]-l[0])*t)
			px[j+1] = channel(l[1] + (r[1]-l[1])*t)
			px[j+2] = channel(l[2] + (r[2]-l[2])*t)
			px[j+3] = 255
		}
	}
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
