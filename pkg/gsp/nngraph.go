package gsp

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sanonone/gspkit/pkg/core/distance"
	"github.com/sanonone/gspkit/pkg/core/knn"
	"github.com/sanonone/gspkit/pkg/core/sparse"
)

// Neighbor-search modes for Config.Mode.
const (
	ModeKNN    = "knn"
	ModeRadius = "radius"
)

// Graph type tags.
const (
	TypeNearestNeighbors   = "nearest neighbors"
	TypeNearestNeighborsL1 = "nearest neighbors l1"
)

// Config controls nearest-neighbor graph construction. Every field has an
// explicit value; start from DefaultConfig and override rather than using
// the zero value.
type Config struct {
	// Mode is the neighbor-search mode, "knn" or "radius".
	Mode string
	// UseFlann requests approximate accelerated search.
	UseFlann bool
	// UseFull computes the full pairwise distance matrix before
	// sparsifying instead of searching incrementally.
	UseFull bool
	// Center recenters the cloud before the search.
	Center bool
	// Rescale scales the cloud into the unit ball before the search.
	Rescale bool
	// Sigma is the kernel bandwidth. Zero means "derive from the data"
	// (see resolveSigma); negative values are rejected.
	Sigma float64
	// K is the number of neighbors per point in knn mode.
	K int
	// Epsilon is the radius in radius mode.
	Epsilon float64
	// UseL1 switches to the Manhattan distance and the linear-exponential
	// kernel exp(-d/sigma) instead of exp(-d^2/sigma).
	UseL1 bool
	// TargetDegree is forwarded to the neighbor search; the exact search
	// ignores it.
	TargetDegree int
	// SymmetrizeType picks how an asymmetric raw weight matrix is forced
	// symmetric: "average" or "full".
	SymmetrizeType string
	// Light selects lightweight graph decoration (no Laplacian).
	Light bool
}

// DefaultConfig returns the standard construction parameters: exact 10-NN,
// L2 metric, averaged symmetrization, full decoration.
func DefaultConfig() Config {
	return Config{
		Mode:           ModeKNN,
		K:              10,
		Epsilon:        0.01,
		SymmetrizeType: SymmetrizeAverage,
	}
}

// BuildNNGraph constructs a similarity graph from a point cloud: it finds
// neighbor pairs, turns their distances into kernel weights, assembles the
// sparse weight matrix and forces it symmetric.
func BuildNNGraph(points [][]float64, cfg Config) (*Graph, error) {
	if cfg.Mode != ModeKNN && cfg.Mode != ModeRadius {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGraphType, cfg.Mode)
	}
	if cfg.SymmetrizeType != SymmetrizeAverage && cfg.SymmetrizeType != SymmetrizeFull {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymmetrizeType, cfg.SymmetrizeType)
	}
	if cfg.Sigma < 0 {
		return nil, fmt.Errorf("%w: configured sigma %v", ErrZeroBandwidth, cfg.Sigma)
	}

	metric := distance.Euclidean
	if cfg.UseL1 {
		metric = distance.Manhattan
	}

	// Ask for one extra raw match: a point is always its own nearest
	// match at distance zero, and the search strips it, leaving k true
	// neighbors per point.
	params := knn.Params{
		Mode:         knn.Mode(cfg.Mode),
		K:            cfg.K + 1,
		Epsilon:      cfg.Epsilon,
		UseApprox:    cfg.UseFlann,
		UseFull:      cfg.UseFull,
		Center:       cfg.Center,
		Rescale:      cfg.Rescale,
		Metric:       metric,
		TargetDegree: cfg.TargetDegree,
	}
	res, err := knn.Search(points, points, params)
	if err != nil {
		return nil, err
	}

	n := len(points)
	sigma, err := resolveSigma(cfg, res)
	if err != nil {
		return nil, err
	}

	w := scatterWeights(n, res, sigma, cfg.UseL1)

	if cfg.Mode == ModeRadius && n > 0 {
		slog.Info("radius graph assembled",
			"epsilon", res.Epsilon,
			"avg_degree", float64(w.NNZ())/float64(n),
		)
	}

	if !w.IsSquare() {
		return nil, fmt.Errorf("%w: %dx%d", ErrWeightsNotSquare, w.Rows(), w.Cols())
	}

	if !w.IsSymmetric() {
		w, err = Symmetrize(w, cfg.SymmetrizeType)
		if err != nil {
			return nil, err
		}
	}

	gtype := TypeNearestNeighbors
	if cfg.UseL1 {
		gtype = TypeNearestNeighborsL1
	}
	g := &Graph{
		N:         n,
		W:         w,
		Coords:    res.Points,
		GraphType: gtype,
		Sigma:     sigma,
	}
	decorate(g, cfg.Light)
	return g, nil
}

// resolveSigma returns the kernel bandwidth: the configured value when
// given, otherwise derived from the search output (mean true-neighbor
// distance for knn mode, the effective radius for radius mode).
//
// A derived bandwidth of zero means the cloud is fully coincident; that is
// an error whenever an actual (off-diagonal) edge would need the kernel.
func resolveSigma(cfg Config, res *knn.Result) (float64, error) {
	sigma := cfg.Sigma
	if sigma == 0 {
		switch {
		case cfg.Mode == ModeKNN && len(res.Dists) > 0:
			m := stat.Mean(res.Dists, nil)
			if cfg.UseL1 {
				sigma = m
			} else {
				sigma = m * m
			}
		case cfg.Mode == ModeRadius:
			if cfg.UseL1 {
				sigma = res.Epsilon / 2
			} else {
				sigma = res.Epsilon * res.Epsilon / 2
			}
		}
	}

	if sigma <= 0 && hasOffDiagonal(res) {
		return 0, fmt.Errorf("%w: mean neighbor distance is zero (coincident points?)", ErrZeroBandwidth)
	}
	return sigma, nil
}

func hasOffDiagonal(res *knn.Result) bool {
	for i := range res.Rows {
		if res.Rows[i] != res.Cols[i] {
			return true
		}
	}
	return false
}

// scatterWeights builds the weight matrix from the neighbor triples.
// Duplicate (row, col) pairs accumulate, then the diagonal is removed:
// self-loops are never retained, whatever the search returned.
func scatterWeights(n int, res *knn.Result, sigma float64, useL1 bool) *sparse.Matrix {
	b := sparse.NewBuilder(n, n)
	if sigma > 0 {
		for e := range res.Rows {
			d := res.Dists[e]
			var w float64
			if useL1 {
				w = math.Exp(-d / sigma)
			} else {
				w = math.Exp(-d * d / sigma)
			}
			b.Append(res.Rows[e], res.Cols[e], w)
		}
	}
	return b.Build().ZeroDiag()
}
