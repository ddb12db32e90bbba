// Package gsp is a small graph-signal-processing toolbox: it builds
// nearest-neighbor similarity graphs from point clouds and runs
// graph-based k-nearest-neighbor classification on top of them.
package gsp

import (
	"gonum.org/v1/gonum/floats"

	"github.com/sanonone/gspkit/pkg/core/sparse"
)

// Laplacian type tags attached to decorated graphs.
const (
	LapCombinatorial = "combinatorial"
)

// Graph is a weighted undirected similarity graph over point-cloud data.
type Graph struct {
	// N is the vertex count.
	N int
	// W is the N x N sparse weight matrix: symmetric, non-negative, zero
	// diagonal.
	W *sparse.Matrix
	// Coords holds the output coordinates, one row per vertex. These are
	// the search-space coordinates, so centering/rescaling is reflected.
	Coords [][]float64
	// GraphType tags the construction ("nearest neighbors" or
	// "nearest neighbors l1").
	GraphType string
	// Sigma is the kernel bandwidth the weights were computed with.
	Sigma float64

	// Decoration, filled by decorate.
	Degrees    []float64
	Laplacian  *sparse.Matrix
	LapType    string
	PlotLimits []float64
}

// decorate fills the derived graph fields. Lightweight decoration stops at
// degrees and plotting limits; the full version also computes the
// combinatorial Laplacian.
func decorate(g *Graph, light bool) {
	g.Degrees = g.W.Degrees()
	g.PlotLimits = plotLimits(g.Coords)
	if light {
		return
	}
	g.Laplacian = g.W.Laplacian()
	g.LapType = LapCombinatorial
}

// plotLimits returns the coordinate bounding box as [min0, max0, min1,
// max1, ...] with a 1% margin on each side, the usual axis limits for
// plotting front-ends.
func plotLimits(coords [][]float64) []float64 {
	if len(coords) == 0 || len(coords[0]) == 0 {
		return nil
	}
	dim := len(coords[0])
	limits := make([]float64, 0, 2*dim)
	col := make([]float64, len(coords))
	for j := 0; j < dim; j++ {
		for i, row := range coords {
			col[i] = row[j]
		}
		lo, hi := floats.Min(col), floats.Max(col)
		margin := (hi - lo) * 0.01
		limits = append(limits, lo-margin, hi+margin)
	}
	return limits
}
