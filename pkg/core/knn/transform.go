// Coordinate pre-transforms applied before searching. The transform is
// derived from the data cloud and applied to both clouds, so that
// queries-equal-data callers (graph construction) see a consistent space.
package knn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// applyTransform centers and/or rescales the clouds per the params and
// returns the transformed copies. The inputs are never mutated; when no
// transform is requested they are returned as-is.
func applyTransform(data, queries [][]float64, p Params) ([][]float64, [][]float64) {
	if !p.Center && !p.Rescale || len(data) == 0 {
		return data, queries
	}

	sameCloud := len(data) == len(queries) && len(data) > 0 && &data[0] == &queries[0]

	data = cloneCloud(data)
	if sameCloud {
		queries = data
	} else {
		queries = cloneCloud(queries)
	}

	if p.Center {
		mean := columnMeans(data)
		shift(data, mean)
		if !sameCloud {
			shift(queries, mean)
		}
	}

	if p.Rescale {
		// Scale so the farthest data point sits on the unit sphere.
		maxNorm := 0.0
		for _, row := range data {
			if n := math.Sqrt(floats.Dot(row, row)); n > maxNorm {
				maxNorm = n
			}
		}
		if maxNorm > 0 {
			f := 1 / maxNorm
			for _, row := range data {
				floats.Scale(f, row)
			}
			if !sameCloud {
				for _, row := range queries {
					floats.Scale(f, row)
				}
			}
		}
	}

	return data, queries
}

func cloneCloud(cloud [][]float64) [][]float64 {
	out := make([][]float64, len(cloud))
	for i, row := range cloud {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// columnMeans computes the per-dimension mean of the cloud.
func columnMeans(cloud [][]float64) []float64 {
	dim := len(cloud[0])
	col := make([]float64, len(cloud))
	mean := make([]float64, dim)
	for j := 0; j < dim; j++ {
		for i, row := range cloud {
			col[i] = row[j]
		}
		mean[j] = stat.Mean(col, nil)
	}
	return mean
}

func shift(cloud [][]float64, mean []float64) {
	for _, row := range cloud {
		floats.Sub(row, mean)
	}
}
