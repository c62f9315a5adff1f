package renderer

import (
	"fmt"
	"strings"
)

// EvenPadFilter pads odd frame sizes by one pixel; yuv420p needs even
// dimensions.
const EvenPadFilter = "pad=ceil(iw/2)*2:ceil(ih/2)*2"

// HStackFilter places n video inputs side by side, first input leftmost.
func HStackFilter(n int) string {
	if n < 2 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%d:v]", i)
	}
	fmt.Fprintf(&b, "hstack=inputs=%d", n)
	return b.String()
}

// Strip is one vertical slice of the canvas.
type Strip struct {
	Index int // 1-based, as used in part file names
	X     int
	Width int
}

// SplitStrips divides width into n strips as evenly as possible. Every
// strip but the last has an even width, so the encoder's even padding
// only ever touches the right edge of the canvas; the leftmost strips
// take the remainder in steps of two. Canvases narrower than two pixels
// per strip fall back to single-pixel remainders.
func SplitStrips(width, n int) []Strip {
	if n < 1 {
		n = 1
	}
	n = min(n, max(width, 1))
	if width < 2*n {
		return splitBy(width, n, 1)
	}
	return splitBy(width, n, 2)
}

// splitBy hands out width in units of unit; the last strip also takes
// what does not divide.
func splitBy(width, n, unit int) []Strip {
	units := width / unit
	base, rem := units/n, units%n
	out := make([]Strip, n)
	x := 0
	for i := range out {
		w := base * unit
		if i < rem {
			w += unit
		}
		if i == n-1 {
			w = width - x
		}
		out[i] = Strip{Index: i + 1, X: x, Width: w}
		x += w
	}
	return out
}
