package analyzer

import (
	"image"
	"math"
)

// Brightness is the gamma-corrected mean intensity of img over all
// pixels and the three color channels, rounded into [0,255].
func Brightness(img image.Image, gamma float64) int {
	mean := meanIntensity(img)
	if mean <= 0 {
		return 0
	}
	v := math.Round(math.Pow(mean/255, gamma) * 255)
	if v > 255 {
		v = 255
	}
	return int(v)
}

func meanIntensity(img image.Image) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	switch src := img.(type) {
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				sum += uint64(row[i]) + uint64(row[i+1]) + uint64(row[i+2])
			}
		}
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				sum += uint64(row[i]) + uint64(row[i+1]) + uint64(row[i+2])
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				sum += uint64(r>>8) + uint64(g>>8) + uint64(bl>>8)
			}
		}
	}
	return float64(sum) / float64(n*3)
}

// RGB is one 8-bit color.
type RGB [3]uint8

// Column holds one color per image row.
type Column []RGB

// RowAverage returns the mean color of every row, truncated to 8 bits.
func RowAverage(img image.Image) Column {
	b := img.Bounds()
	col := make(Column, b.Dy())
	w := uint64(b.Dx())
	if w == 0 {
		return col
	}
	if src, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			var r, g, bl uint64
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				r += uint64(row[i])
				g += uint64(row[i+1])
				bl += uint64(row[i+2])
			}
			col[y-b.Min.Y] = RGB{uint8(r / w), uint8(g / w), uint8(bl / w)}
		}
		return col
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		var r, g, bl uint64
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
		}
		col[y-b.Min.Y] = RGB{uint8(r / w), uint8(g / w), uint8(bl / w)}
	}
	return col
}
