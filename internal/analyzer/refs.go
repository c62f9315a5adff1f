package analyzer

import (
	log "github.com/sirupsen/logrus"

	"github.com/ivlev/timefade/internal/source"
)

// ImageRef is one candidate image of a fade.
type ImageRef struct {
	Path       string
	Brightness int
	Offset     source.Offset
	Proxy      bool
	Active     bool
}

// BrightnessOf loads path and measures it. Unreadable images count as 0.
func BrightnessOf(l source.Loader, path string, gamma float64) int {
	img, err := l.Load(path)
	if err != nil {
		log.WithField("path", path).Warnf("[!] brightness: %v", err)
		return 0
	}
	return Brightness(img, gamma)
}

// Measure recomputes the brightness of every ref for a new gamma.
func Measure(l source.Loader, refs []ImageRef, gamma float64) {
	for i := range refs {
		refs[i].Brightness = BrightnessOf(l, refs[i].Path, gamma)
	}
}

// FilterByBrightness deactivates refs darker than threshold. It never
// reactivates anything; use ResetFilter for that.
func FilterByBrightness(refs []ImageRef, threshold int) {
	for i := range refs {
		if refs[i].Brightness < threshold {
			refs[i].Active = false
		}
	}
}

func ResetFilter(refs []ImageRef) {
	for i := range refs {
		refs[i].Active = true
	}
}

// Active returns the paths, brightness values and proxy flags of the
// active refs, in order.
func Active(refs []ImageRef) (paths []string, brightness []int, proxies []bool) {
	for _, r := range refs {
		if !r.Active {
			continue
		}
		paths = append(paths, r.Path)
		brightness = append(brightness, r.Brightness)
		proxies = append(proxies, r.Proxy)
	}
	return paths, brightness, proxies
}
