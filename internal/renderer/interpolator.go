package renderer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/ivlev/timefade/internal/fade"
)

// ErrTimelineMismatch means the keyframes cannot share one timeline.
var ErrTimelineMismatch = errors.New("keyframe timeline mismatch")

// Model is the continuous timeline through a list of keyframe fades.
// Boundary positions follow one spline per boundary index; colors blend
// linearly between the two keyframes bracketing a frame.
type Model struct {
	Keyframes []*fade.Result
	Times     []float64
	Steps     int

	width, height int
	splines       []interp.Predictor
	colors        [][]fade.Colors // [keyframe][boundary]
}

// NewModel fits the timeline. Every keyframe must have the same size and
// boundary count, and there must be at least two of them.
func NewModel(keyframes []*fade.Result, steps int) (*Model, error) {
	k := len(keyframes)
	if k < 2 {
		return nil, fmt.Errorf("%w: %d keyframes", ErrTimelineMismatch, k)
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps %d", ErrTimelineMismatch, steps)
	}
	first := keyframes[0]
	n := len(first.Boundaries)
	for i, kf := range keyframes {
		if len(kf.Boundaries) != n || len(kf.Colors) != n {
			return nil, fmt.Errorf("%w: keyframe %d has %d boundaries, keyframe 0 has %d",
				ErrTimelineMismatch, i, len(kf.Boundaries), n)
		}
		if kf.Width != first.Width || kf.Height != first.Height {
			return nil, fmt.Errorf("%w: keyframe %d is %dx%d, keyframe 0 is %dx%d",
				ErrTimelineMismatch, i, kf.Width, kf.Height, first.Width, first.Height)
		}
	}

	m := &Model{
		Keyframes: keyframes,
		Times:     make([]float64, k),
		Steps:     steps,
		width:     first.Width,
		height:    first.Height,
		splines:   make([]interp.Predictor, n),
		colors:    make([][]fade.Colors, k),
	}
	for i := range m.Times {
		m.Times[i] = float64(i) / float64(k-1)
	}

	ys := make([]float64, k)
	for j := 0; j < n; j++ {
		for i, kf := range keyframes {
			ys[i] = float64(kf.Boundaries[j])
		}
		m.splines[j] = fitBoundary(m.Times, ys)
	}

	for i, kf := range keyframes {
		m.colors[i] = make([]fade.Colors, n)
		for j, col := range kf.Colors {
			m.colors[i][j] = fade.ToColors(col)
		}
	}
	return m, nil
}

// fitBoundary picks the smoothest curve the point count allows:
// not-a-knot cubic from four points, the interpolating parabola for
// three, a line for two.
func fitBoundary(xs, ys []float64) interp.Predictor {
	xs, ys = append([]float64(nil), xs...), append([]float64(nil), ys...)
	switch {
	case len(xs) >= 4:
		var s interp.NotAKnotCubic
		if err := s.Fit(xs, ys); err == nil {
			return &s
		}
	case len(xs) == 3:
		return quadratic{xs: xs, ys: ys}
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return constant(ys[0])
	}
	return &pl
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// quadratic is the Lagrange parabola through three points.
type quadratic struct {
	xs, ys []float64
}

func (q quadratic) Predict(x float64) float64 {
	x0, x1, x2 := q.xs[0], q.xs[1], q.xs[2]
	switch x {
	case x0:
		return q.ys[0]
	case x1:
		return q.ys[1]
	case x2:
		return q.ys[2]
	}
	l0 := (x - x1) * (x - x2) / ((x0 - x1) * (x0 - x2))
	l1 := (x - x0) * (x - x2) / ((x1 - x0) * (x1 - x2))
	l2 := (x - x0) * (x - x1) / ((x2 - x0) * (x2 - x1))
	return q.ys[0]*l0 + q.ys[1]*l1 + q.ys[2]*l2
}

func (m *Model) Width() int  { return m.width }
func (m *Model) Height() int { return m.height }

// TotalFrames is steps*(K-1). Frames run from 0 to TotalFrames inclusive.
func (m *Model) TotalFrames() int {
	return m.Steps * (len(m.Keyframes) - 1)
}

// BoundaryCount includes both canvas edges.
func (m *Model) BoundaryCount() int { return len(m.splines) }

// Time maps a frame index onto [0,1].
func (m *Model) Time(f int) float64 {
	return float64(m.clamp(f)) / float64(m.TotalFrames())
}

// Bracket returns the keyframe pair around frame f and the position
// between them.
func (m *Model) Bracket(f int) (i int, local float64) {
	f = m.clamp(f)
	i = f / m.Steps
	if i >= len(m.Keyframes)-1 {
		return len(m.Keyframes) - 2, 1
	}
	return i, float64(f%m.Steps) / float64(m.Steps)
}

// Boundaries returns the unclamped spline positions at frame f.
func (m *Model) Boundaries(f int) []float64 {
	f = m.clamp(f)
	out := make([]float64, len(m.splines))
	if k, exact := m.keyframeAt(f); exact {
		for j, b := range m.Keyframes[k].Boundaries {
			out[j] = float64(b)
		}
		return out
	}
	t := m.Time(f)
	for j, s := range m.splines {
		out[j] = s.Predict(t)
	}
	return out
}

// Colors returns one blended color column per boundary at frame f.
func (m *Model) Colors(f int) []fade.Colors {
	i, local := m.Bracket(f)
	a, b := m.colors[i], m.colors[i+1]
	switch local {
	case 0:
		return a
	case 1:
		return b
	}
	out := make([]fade.Colors, len(a))
	for j := range a {
		out[j] = fade.LerpColors(a[j], b[j], local)
	}
	return out
}

// FrameBoundaries rounds the positions at frame f and makes them
// renderable: the first is 0, the last is the width and each one lies
// strictly right of its predecessor unless the width stops it.
func (m *Model) FrameBoundaries(f int) []int {
	return Clamp(m.Boundaries(f), m.width)
}

// Clamp rounds raw positions into a strictly increasing pixel layout
// spanning [0,width].
func Clamp(raw []float64, width int) []int {
	out := make([]int, len(raw))
	for j, v := range raw {
		out[j] = min(width, max(0, int(math.Round(v))))
	}
	if len(out) == 0 {
		return out
	}
	out[0] = 0
	out[len(out)-1] = width
	for j := 1; j < len(out); j++ {
		if out[j] <= out[j-1] {
			out[j] = min(out[j-1]+1, width)
		}
	}
	return out
}

func (m *Model) keyframeAt(f int) (int, bool) {
	if f%m.Steps != 0 {
		return 0, false
	}
	return f / m.Steps, true
}

func (m *Model) clamp(f int) int {
	return min(max(f, 0), m.TotalFrames())
}
