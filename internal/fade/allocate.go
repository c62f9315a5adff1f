package fade

import "math"

const sumTolerance = 1e-5

// Allocate turns non-negative ideal widths into integers that sum to
// exactly total. A zero-sum input hands everything to the last entry.
func Allocate(ideal []float64, total int) []int {
	n := len(ideal)
	out := make([]int, n)
	if n == 0 {
		return out
	}

	var sum float64
	for _, v := range ideal {
		sum += v
	}
	if sum == 0 {
		out[n-1] = total
		return out
	}

	scaled := make([]float64, n)
	switch {
	case math.Abs(sum-float64(total)) < sumTolerance:
		copy(scaled, ideal)
	case sum > float64(total):
		f := float64(total) / sum
		for i, v := range ideal {
			scaled[i] = v * f
		}
	default:
		short := float64(total) - sum
		for i, v := range ideal {
			scaled[i] = v + short*(v/sum)
		}
	}

	got := 0
	for i, v := range scaled {
		out[i] = int(math.Round(v))
		got += out[i]
	}

	diff := total - got
	for i := 0; diff > 0; i = (i + 1) % n {
		out[i]++
		diff--
	}
	for i := 0; diff < 0; i = (i + 1) % n {
		if out[i] > 0 {
			out[i]--
			diff++
		}
	}
	return out
}

// visible lifts every segment to at least one pixel and the last one to
// two, so its start stays left of the closing width-1 boundary. The
// pixels come from whichever segment has the most to spare. Widths too
// narrow to satisfy this are left alone.
func visible(widths []int) []int {
	n := len(widths)
	need := func(i int) int {
		if i == n-1 {
			return 2
		}
		return 1
	}
	total := 0
	for _, w := range widths {
		total += w
	}
	if n == 0 || total < n+1 {
		return widths
	}
	for i := range widths {
		for widths[i] < need(i) {
			donor := 0
			for j := range widths {
				if widths[j]-need(j) > widths[donor]-need(donor) {
					donor = j
				}
			}
			widths[donor]--
			widths[i]++
		}
	}
	return widths
}
