// Package knn implements nearest-neighbor search over point clouds: exact
// k-nearest and fixed-radius queries, an optional full-distance-matrix
// path, and an approximate path backed by the hnsw package.
//
// Results come back as flat (row, col, dist) triples so that callers can
// scatter them straight into a sparse matrix.
package knn

import (
	"container/heap"
	"fmt"

	"github.com/sanonone/gspkit/pkg/core/distance"
	"github.com/sanonone/gspkit/pkg/core/hnsw"
	"github.com/sanonone/gspkit/pkg/core/types"
)

// Mode selects the neighbor-search strategy.
type Mode string

const (
	// ModeKNN connects each query to its K closest data points.
	ModeKNN Mode = "knn"
	// ModeRadius connects each query to every data point within Epsilon.
	ModeRadius Mode = "radius"
)

// Params configures a search. The zero value is not usable; start from
// DefaultParams and override.
type Params struct {
	Mode Mode
	// K is the raw number of matches to fetch per query. In a same-cloud
	// search one of them is the query itself, which is stripped from the
	// output, so callers wanting k true neighbors ask for k+1.
	K       int
	Epsilon float64
	// UseApprox routes candidate generation through the HNSW index instead
	// of the exhaustive scan. Only meaningful in ModeKNN; radius queries
	// always scan.
	UseApprox bool
	// UseFull materializes the full pairwise distance matrix before
	// selecting neighbors. Cheaper for small dense clouds queried many
	// times over; memory-hungry beyond a few thousand points.
	UseFull bool
	// Center subtracts the per-dimension mean before searching.
	Center bool
	// Rescale scales the (optionally centered) cloud into the unit ball.
	Rescale bool
	Metric  distance.Metric
	// TargetDegree is accepted for interface parity with callers that tune
	// radius searches toward a wanted average degree; the exact search
	// does not use it.
	TargetDegree int
}

// DefaultParams returns the standard configuration: exact 10-NN under the
// Euclidean metric.
func DefaultParams() Params {
	return Params{
		Mode:    ModeKNN,
		K:       10,
		Epsilon: 0.01,
		Metric:  distance.Euclidean,
	}
}

// Result is a neighbor set in coordinate form. Rows, Cols and Dists are
// parallel: query Rows[e] has data point Cols[e] at distance Dists[e].
type Result struct {
	Rows  []int
	Cols  []int
	Dists []float64
	// Points holds the transformed query cloud (after Center/Rescale);
	// identical to the input when no transform was requested.
	Points [][]float64
	// Epsilon is the effective radius used by ModeRadius queries.
	Epsilon float64
}

// Neighbors returns the triples as a slice of types.Neighbor.
func (r *Result) Neighbors() []types.Neighbor {
	out := make([]types.Neighbor, len(r.Rows))
	for i := range r.Rows {
		out[i] = types.Neighbor{Row: r.Rows[i], Col: r.Cols[i], Dist: r.Dists[i]}
	}
	return out
}

// Search finds neighbors of every query point among the data points.
//
// When queries and data are the same cloud, every query would match itself
// at distance zero; those self-matches are stripped from the output, so a
// K of k+1 yields exactly k true neighbors per point. Distinct coincident
// points are not self-matches and are kept.
func Search(data, queries [][]float64, p Params) (*Result, error) {
	if p.Mode != ModeKNN && p.Mode != ModeRadius {
		return nil, fmt.Errorf("knn: unknown search mode %q", p.Mode)
	}
	distFn, err := distance.Get(p.Metric)
	if err != nil {
		return nil, fmt.Errorf("knn: %w", err)
	}

	same := sameCloud(data, queries)
	data, queries = applyTransform(data, queries, p)
	if same {
		queries = data
	}

	res := &Result{Points: queries, Epsilon: p.Epsilon}
	if len(data) == 0 || len(queries) == 0 {
		return res, nil
	}

	switch {
	case p.Mode == ModeRadius:
		err = searchRadius(res, data, queries, distFn, p.Epsilon, same)
	case p.UseApprox:
		err = searchApprox(res, data, queries, p, same)
	case p.UseFull:
		err = searchFullKNN(res, data, queries, distFn, p.K, same)
	default:
		err = searchKNN(res, data, queries, distFn, p.K, same)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// sameCloud reports whether data and queries are the same slice.
func sameCloud(data, queries [][]float64) bool {
	return len(data) > 0 && len(data) == len(queries) && &data[0] == &queries[0]
}

// effectiveK clamps the raw match count to the data size and, for
// same-cloud searches, discounts the guaranteed self-match.
func effectiveK(k, n int, same bool) (int, error) {
	if k > n {
		k = n
	}
	if same {
		k--
	}
	if k < 0 || (k == 0 && !same) {
		return 0, fmt.Errorf("knn: k must be positive")
	}
	return k, nil
}

// searchKNN is the exhaustive per-query scan with a bounded max-heap of
// the k best candidates seen so far.
func searchKNN(res *Result, data, queries [][]float64, distFn distance.Func, k int, same bool) error {
	k, err := effectiveK(k, len(data), same)
	if err != nil {
		return err
	}
	if k == 0 {
		return nil
	}

	for qi, q := range queries {
		best := &resultHeap{}
		for di, d := range data {
			if same && di == qi {
				continue
			}
			dist, err := distFn(q, d)
			if err != nil {
				return err
			}
			if best.Len() < k {
				heap.Push(best, types.Candidate{ID: uint32(di), Distance: dist})
			} else if dist < (*best)[0].Distance {
				(*best)[0] = types.Candidate{ID: uint32(di), Distance: dist}
				heap.Fix(best, 0)
			}
		}
		appendHeap(res, qi, best)
	}
	return nil
}

// searchFullKNN materializes the flat row-major distance matrix first and
// selects the k nearest from each row.
func searchFullKNN(res *Result, data, queries [][]float64, distFn distance.Func, k int, same bool) error {
	k, err := effectiveK(k, len(data), same)
	if err != nil {
		return err
	}
	if k == 0 {
		return nil
	}

	full, err := fullMatrix(data, queries, distFn)
	if err != nil {
		return err
	}
	n := len(data)
	for qi := range queries {
		row := full[qi*n : (qi+1)*n]
		best := &resultHeap{}
		for di, dist := range row {
			if same && di == qi {
				continue
			}
			if best.Len() < k {
				heap.Push(best, types.Candidate{ID: uint32(di), Distance: dist})
			} else if dist < (*best)[0].Distance {
				(*best)[0] = types.Candidate{ID: uint32(di), Distance: dist}
				heap.Fix(best, 0)
			}
		}
		appendHeap(res, qi, best)
	}
	return nil
}

// searchRadius reports every pair within epsilon.
func searchRadius(res *Result, data, queries [][]float64, distFn distance.Func, epsilon float64, same bool) error {
	for qi, q := range queries {
		for di, d := range data {
			if same && di == qi {
				continue
			}
			dist, err := distFn(q, d)
			if err != nil {
				return err
			}
			if dist <= epsilon {
				res.Rows = append(res.Rows, qi)
				res.Cols = append(res.Cols, di)
				res.Dists = append(res.Dists, dist)
			}
		}
	}
	return nil
}

// searchApprox builds a throwaway HNSW index over the data cloud and asks
// it for candidates. Distances reported by the index are exact, only the
// candidate set is approximate.
func searchApprox(res *Result, data, queries [][]float64, p Params, same bool) error {
	ix, err := hnsw.New(0, 0, p.Metric)
	if err != nil {
		return err
	}
	for _, d := range data {
		if _, err := ix.Add(d); err != nil {
			return err
		}
	}

	// Fetch the raw count; self-matches are filtered below, like the
	// exact paths do.
	raw := p.K
	if raw > len(data) {
		raw = len(data)
	}
	keep, err := effectiveK(p.K, len(data), same)
	if err != nil {
		return err
	}
	if keep == 0 {
		return nil
	}

	for qi, q := range queries {
		cands, err := ix.SearchKNN(q, raw, 0)
		if err != nil {
			return err
		}
		kept := 0
		for _, c := range cands {
			if same && int(c.ID) == qi {
				continue
			}
			if kept == keep {
				break
			}
			res.Rows = append(res.Rows, qi)
			res.Cols = append(res.Cols, int(c.ID))
			res.Dists = append(res.Dists, c.Distance)
			kept++
		}
	}
	return nil
}

// fullMatrix computes the flat len(queries) x len(data) distance matrix in
// row-major order.
func fullMatrix(data, queries [][]float64, distFn distance.Func) ([]float64, error) {
	n := len(data)
	full := make([]float64, len(queries)*n)
	for qi, q := range queries {
		for di, d := range data {
			dist, err := distFn(q, d)
			if err != nil {
				return nil, err
			}
			full[qi*n+di] = dist
		}
	}
	return full, nil
}

// appendHeap drains a candidate heap into the result triples in increasing
// distance order.
func appendHeap(res *Result, row int, h *resultHeap) {
	drained := make([]types.Candidate, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		drained[i] = heap.Pop(h).(types.Candidate)
	}
	for _, c := range drained {
		res.Rows = append(res.Rows, row)
		res.Cols = append(res.Cols, int(c.ID))
		res.Dists = append(res.Dists, c.Distance)
	}
}

// resultHeap is a max-heap by distance holding the best k candidates; the
// root is the worst kept candidate, cheap to replace.
type resultHeap []types.Candidate

func (h resultHeap) Len() int { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x any) { *h = append(*h, x.(types.Candidate)) }
func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
