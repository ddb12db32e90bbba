// Package distance provides the point-metric functions used by the graph
// toolbox. It supports the Euclidean (L2) and Manhattan (L1) metrics over
// float64 coordinates.
//
// The package uses runtime CPU detection to dispatch to the most convenient
// implementation available: plain Go loops on modest hardware, Gonum BLAS
// routines (which carry their own SIMD kernels) where AVX2 is present.
package distance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/gonum"
)

// --- Public Types ---

// Metric defines the type of distance calculation to perform.
type Metric string

const (
	// Euclidean is the L2 metric: sqrt(sum((a_i - b_i)^2)).
	Euclidean Metric = "euclidean"
	// Manhattan is the L1 metric: sum(|a_i - b_i|).
	Manhattan Metric = "manhattan"
)

// Func computes the distance between two points of equal dimension.
type Func func(v1, v2 []float64) (float64, error)

// --- Workspace Pool ---

// diffWorkspace pools float64 slices for the BLAS-based implementations,
// which need a scratch vector for the coordinate-wise difference. Borrowing
// from the pool keeps per-call allocations off the hot search path.
var diffWorkspace = sync.Pool{
	New: func() any {
		s := make([]float64, 64)
		return &s
	},
}

func borrowDiff(n int) (*[]float64, []float64) {
	ptr := diffWorkspace.Get().(*[]float64)
	if cap(*ptr) < n {
		*ptr = make([]float64, n)
	}
	return ptr, (*ptr)[:n]
}

// --- Pure Go Implementations ---

// euclideanGo is the reference implementation for the L2 metric.
func euclideanGo(v1, v2 []float64) (float64, error) {
	d2, err := SquaredEuclidean(v1, v2)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(d2), nil
}

// SquaredEuclidean returns the squared L2 distance. It is exported because
// the full-matrix search path ranks candidates on the squared value and
// defers the square root until results are reported.
func SquaredEuclidean(v1, v2 []float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, errors.New("squared euclidean: points must have the same dimension")
	}
	var sum float64
	for i := range v1 {
		diff := v1[i] - v2[i]
		sum += diff * diff
	}
	return sum, nil
}

// manhattanGo is the reference implementation for the L1 metric.
func manhattanGo(v1, v2 []float64) (float64, error) {
	if len(v1) != len(v2) {
		return 0, errors.New("manhattan: points must have the same dimension")
	}
	var sum float64
	for i := range v1 {
		d := v1[i] - v2[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum, nil
}

// --- Gonum BLAS Implementations ---

var gonumEngine = gonum.Implementation{}

// euclideanGonum computes the L2 distance via BLAS: diff = v1 - v2 with
// Daxpy, then Ddot(diff, diff).
func euclideanGonum(v1, v2 []float64) (float64, error) {
	n := len(v1)
	if n != len(v2) {
		return 0, errors.New("squared euclidean: points must have the same dimension")
	}

	ptr, diff := borrowDiff(n)
	defer diffWorkspace.Put(ptr)

	copy(diff, v1)
	gonumEngine.Daxpy(n, -1, v2, 1, diff, 1)
	dot := gonumEngine.Ddot(n, diff, 1, diff, 1)
	return math.Sqrt(dot), nil
}

// manhattanGonum computes the L1 distance via BLAS: diff = v1 - v2 with
// Daxpy, then Dasum(diff).
func manhattanGonum(v1, v2 []float64) (float64, error) {
	n := len(v1)
	if n != len(v2) {
		return 0, errors.New("manhattan: points must have the same dimension")
	}

	ptr, diff := borrowDiff(n)
	defer diffWorkspace.Put(ptr)

	copy(diff, v1)
	gonumEngine.Daxpy(n, -1, v2, 1, diff, 1)
	return gonumEngine.Dasum(n, diff, 1), nil
}

// --- Function Catalog and Dispatch ---

// funcs maps a metric to its current best implementation. The pure Go
// versions are the defaults; init may override them.
var funcs = map[Metric]Func{
	Euclidean: euclideanGo,
	Manhattan: manhattanGo,
}

func init() {
	// Prefer the Gonum BLAS kernels only where their SIMD paths actually
	// engage; on narrower CPUs the plain loops win for short points.
	if cpuid.CPU.Has(cpuid.AVX2) {
		funcs[Euclidean] = euclideanGonum
		funcs[Manhattan] = manhattanGonum
	}
}

// Get returns the best available distance function for the metric.
func Get(metric Metric) (Func, error) {
	fn, ok := funcs[metric]
	if !ok {
		return nil, fmt.Errorf("metric '%s' is not supported", metric)
	}
	return fn, nil
}

// Valid reports whether the metric names a supported distance.
func Valid(metric Metric) bool {
	_, ok := funcs[metric]
	return ok
}
