package fade

import (
	"math"

	"github.com/ivlev/timefade/internal/config"
)

// weightEpsilon floors vanishing weights to exactly zero.
const weightEpsilon = 1e-6

// TransitionWeight maps the mean brightness of an adjacent image pair
// to the relative width its transition should get.
//
// Exponential: max(1, b)^influence, or 1 when influence is 0.
// Parabola: 1-((b-midpoint)/midpoint)^2 clamped to [0,1], raised to
// influence when influence is non-zero.
func TransitionWeight(avgBrightness float64, p config.FadeParams) float64 {
	var w float64
	switch p.Weighting {
	case config.Parabola:
		d := (avgBrightness - p.Midpoint) / p.Midpoint
		w = 1 - d*d
		w = math.Max(0, math.Min(1, w))
		if p.Influence != 0 {
			w = math.Pow(w, p.Influence)
		}
	default:
		if p.Influence == 0 {
			return 1
		}
		w = math.Pow(math.Max(1, avgBrightness), p.Influence)
	}
	if w < weightEpsilon {
		return 0
	}
	return w
}

// Transitions returns the N-1 pair weights for N brightness values.
func Transitions(brightness []int, p config.FadeParams) []float64 {
	if len(brightness) < 2 {
		return nil
	}
	out := make([]float64, len(brightness)-1)
	for i := range out {
		avg := float64(brightness[i]+brightness[i+1]) / 2
		out[i] = TransitionWeight(avg, p)
	}
	return out
}

// IdealWidths spreads width over the transitions by weight, then keeps
// every width within damping percent of the equal split.
func IdealWidths(weights []float64, width int, damping float64) []float64 {
	n := len(weights)
	if n == 0 {
		return nil
	}
	var total float64
	for _, w := range weights {
		total += w
	}

	baseline := float64(width) / float64(n)
	shift := baseline * damping / 100
	out := make([]float64, n)
	for i, w := range weights {
		ideal := 0.0
		if total > 0 {
			ideal = float64(width) * w / total
		}
		out[i] = math.Max(baseline-shift, math.Min(baseline+shift, ideal))
	}
	return out
}
