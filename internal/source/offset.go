package source

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
)

// Offset is a UTC offset in hundredths of an hour. Fixed-point keeps
// offsets parsed from different filenames comparable with ==.
type Offset int32

const offsetScale = 100

var utcPattern = regexp.MustCompile(`(?i)^UTC([+-]\d+(?:\.\d+)?)`)

// OffsetFromHours quantizes a fractional hour value.
func OffsetFromHours(h float64) Offset {
	return Offset(math.Round(h * offsetScale))
}

func (o Offset) Hours() float64 {
	return float64(o) / offsetScale
}

func (o Offset) String() string {
	sign := "+"
	if o < 0 {
		sign = ""
	}
	return "UTC" + sign + strconv.FormatFloat(o.Hours(), 'f', -1, 64)
}

// ParseUTCOffset reads names like "UTC+5.75_cam.png" or "utc-1.png".
func ParseUTCOffset(path string) (Offset, bool) {
	m := utcPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return OffsetFromHours(h), true
}

// dummyName is the file name of the black stand-in for an offset.
func dummyName(o Offset) string {
	return fmt.Sprintf("%s_dummy.png", o)
}
