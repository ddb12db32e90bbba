package gsp

import (
	"fmt"
	"math"
)

// ClassificationMatrix builds the one-hot indicator matrix B (N x C) from
// integer labels. Only rows with mask set are filled; the label range is
// taken from the observed entries.
func ClassificationMatrix(labels []int, mask []bool) [][]float64 {
	classes := 0
	for i, l := range labels {
		if mask[i] && l+1 > classes {
			classes = l + 1
		}
	}
	b := make([][]float64, len(labels))
	for i := range b {
		b[i] = make([]float64, classes)
		if mask[i] {
			b[i][labels[i]] = 1
		}
	}
	return b
}

// RegressionKNN solves the label-propagation regression on the graph: each
// unobserved row of b is repeatedly replaced by the weight-normalized
// average of its neighbors' rows, with observed rows held fixed, until the
// largest update falls below tolerance. The sweep order is the vertex
// order, so the result is deterministic.
func RegressionKNN(g *Graph, mask []bool, b [][]float64) [][]float64 {
	const (
		maxSweeps = 200
		tol       = 1e-10
	)

	sol := make([][]float64, len(b))
	for i := range b {
		sol[i] = append([]float64(nil), b[i]...)
	}
	if len(sol) == 0 || len(sol[0]) == 0 {
		return sol
	}

	row := make([]float64, len(sol[0]))
	for sweep := 0; sweep < maxSweeps; sweep++ {
		maxDelta := 0.0
		for i := range sol {
			if mask[i] {
				continue
			}
			for c := range row {
				row[c] = 0
			}
			var wsum float64
			g.W.Row(i, func(j int, w float64) {
				wsum += w
				for c := range row {
					row[c] += w * sol[j][c]
				}
			})
			if wsum == 0 {
				// Isolated vertex: nothing to propagate from.
				continue
			}
			for c := range row {
				next := row[c] / wsum
				if d := math.Abs(next - sol[i][c]); d > maxDelta {
					maxDelta = d
				}
				sol[i][c] = next
			}
		}
		if maxDelta < tol {
			break
		}
	}
	return sol
}

// Matrix2Label decodes a solution matrix back to labels by row-wise
// argmax, shifted by offset. Ties and all-zero rows resolve to the lowest
// class index.
func Matrix2Label(b [][]float64, offset int) []int {
	out := make([]int, len(b))
	for i, row := range b {
		best := 0
		for c := 1; c < len(row); c++ {
			if row[c] > row[best] {
				best = c
			}
		}
		out[i] = best + offset
	}
	return out
}

// ClassifyKNN assigns a class to every vertex of the graph given labels
// for the masked subset: it builds the indicator matrix, propagates it
// over the graph and decodes the result.
func ClassifyKNN(g *Graph, labels []int, mask []bool) ([]int, error) {
	if len(labels) != g.N || len(mask) != g.N {
		return nil, fmt.Errorf("gsp: labels and mask must have length %d", g.N)
	}
	observed := 0
	for i, m := range mask {
		if m {
			observed++
			if labels[i] < 0 {
				return nil, fmt.Errorf("gsp: negative label %d at vertex %d", labels[i], i)
			}
		}
	}
	if observed == 0 {
		return nil, fmt.Errorf("gsp: classification needs at least one observed label")
	}

	b := ClassificationMatrix(labels, mask)
	sol := RegressionKNN(g, mask, b)
	return Matrix2Label(sol, 0), nil
}
