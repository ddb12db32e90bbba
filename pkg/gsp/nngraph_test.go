package gsp

import (
	"errors"
	"math"
	"testing"
)

func unitSquare() [][]float64 {
	return [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "ball"
	if _, err := BuildNNGraph(unitSquare(), cfg); !errors.Is(err, ErrUnknownGraphType) {
		t.Errorf("expected ErrUnknownGraphType, got %v", err)
	}
}

func TestBuildRejectsUnknownSymmetrize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SymmetrizeType = "clip"
	if _, err := BuildNNGraph(unitSquare(), cfg); !errors.Is(err, ErrUnknownSymmetrizeType) {
		t.Errorf("expected ErrUnknownSymmetrizeType, got %v", err)
	}
}

func TestBuildRejectsNegativeSigma(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sigma = -1
	if _, err := BuildNNGraph(unitSquare(), cfg); !errors.Is(err, ErrZeroBandwidth) {
		t.Errorf("expected ErrZeroBandwidth, got %v", err)
	}
}

// TestBuildSquareKNN is the canonical scenario: 4 corners of the unit
// square, k=1. Every point's nearest true neighbor is an adjacent corner
// at distance 1, so the derived sigma is mean(1)^2 = 1 and each kept edge
// carries exp(-1).
func TestBuildSquareKNN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 1
	cfg.SymmetrizeType = SymmetrizeFull

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if g.N != 4 {
		t.Fatalf("N = %d, want 4", g.N)
	}
	if g.GraphType != TypeNearestNeighbors {
		t.Errorf("graph type %q", g.GraphType)
	}
	if math.Abs(g.Sigma-1) > 1e-12 {
		t.Errorf("derived sigma %v, want 1", g.Sigma)
	}

	want := math.Exp(-1)
	dense := g.W.Dense()
	for i := 0; i < 4; i++ {
		nnz := 0
		for j := 0; j < 4; j++ {
			v := dense[i][j]
			if v == 0 {
				continue
			}
			nnz++
			if math.Abs(v-want) > 1e-12 {
				t.Errorf("W[%d][%d] = %v, want %v", i, j, v, want)
			}
		}
		if nnz < 1 || nnz > 2 {
			t.Errorf("row %d has %d nonzeros, want 1 or 2", i, nnz)
		}
	}
}

func TestBuildAlwaysSymmetricZeroDiagonal(t *testing.T) {
	clouds := [][][]float64{
		unitSquare(),
		{{0}, {1}, {2.5}, {7}, {7.1}},
		{{1, 2, 3}},
	}
	configs := []Config{DefaultConfig()}

	c := DefaultConfig()
	c.K = 2
	c.UseL1 = true
	configs = append(configs, c)

	c = DefaultConfig()
	c.Mode = ModeRadius
	c.Epsilon = 3
	configs = append(configs, c)

	c = DefaultConfig()
	c.K = 1
	c.SymmetrizeType = SymmetrizeFull
	c.UseFull = true
	configs = append(configs, c)

	for ci, cfg := range configs {
		for pi, pts := range clouds {
			g, err := BuildNNGraph(pts, cfg)
			if err != nil {
				t.Fatalf("config %d cloud %d: %v", ci, pi, err)
			}
			if !g.W.IsSquare() {
				t.Errorf("config %d cloud %d: W not square", ci, pi)
			}
			if !g.W.IsSymmetric() {
				t.Errorf("config %d cloud %d: W not symmetric", ci, pi)
			}
			for i := 0; i < g.N; i++ {
				if g.W.At(i, i) != 0 {
					t.Errorf("config %d cloud %d: nonzero diagonal at %d", ci, pi, i)
				}
			}
			g.W.Iterate(func(_, _ int, v float64) {
				if v <= 0 || v > 1 {
					t.Errorf("config %d cloud %d: weight %v outside (0,1]", ci, pi, v)
				}
			})
		}
	}
}

func TestBuildRadiusAllPairs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeRadius
	cfg.Epsilon = 2 // captures even the sqrt(2) diagonal

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Every off-diagonal entry populated: average degree 3.
	if g.W.NNZ() != 12 {
		t.Errorf("nnz = %d, want 12", g.W.NNZ())
	}
	if got := float64(g.W.NNZ()) / float64(g.N); got != 3 {
		t.Errorf("average degree %v, want 3", got)
	}
	// Radius sigma rule: epsilon^2 / 2.
	if g.Sigma != 2 {
		t.Errorf("sigma %v, want 2", g.Sigma)
	}
}

func TestBuildRadiusEdgesWithinEpsilon(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeRadius
	cfg.Epsilon = 1.1

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Only the unit-length sides qualify; their kernel weight is
	// exp(-1 / (eps^2/2)).
	want := math.Exp(-1 / (1.1 * 1.1 / 2))
	g.W.Iterate(func(i, j int, v float64) {
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("W[%d][%d] = %v, want %v", i, j, v, want)
		}
	})
	if g.W.NNZ() != 8 {
		t.Errorf("nnz = %d, want 8", g.W.NNZ())
	}
}

func TestBuildSinglePoint(t *testing.T) {
	g, err := BuildNNGraph([][]float64{{3, 4}}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if g.N != 1 {
		t.Fatalf("N = %d, want 1", g.N)
	}
	if g.W.NNZ() != 0 || g.W.At(0, 0) != 0 {
		t.Error("1x1 weight matrix must be zero")
	}
}

func TestBuildL1SwitchesKernel(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 2}, {5, 5}, {6, 7}}

	l2cfg := DefaultConfig()
	l2cfg.K = 1
	l2, err := BuildNNGraph(pts, l2cfg)
	if err != nil {
		t.Fatal(err)
	}

	l1cfg := l2cfg
	l1cfg.UseL1 = true
	l1, err := BuildNNGraph(pts, l1cfg)
	if err != nil {
		t.Fatal(err)
	}

	if l1.GraphType != TypeNearestNeighborsL1 {
		t.Errorf("graph type %q", l1.GraphType)
	}
	// L1: nearest-neighbor distances are 3 (0<->1 and 2<->3), so sigma is
	// the plain mean 3. L2: distances sqrt(5), so sigma is mean^2 = 5.
	if math.Abs(l1.Sigma-3) > 1e-12 {
		t.Errorf("L1 sigma %v, want 3", l1.Sigma)
	}
	if math.Abs(l2.Sigma-5) > 1e-12 {
		t.Errorf("L2 sigma %v, want 5", l2.Sigma)
	}

	// The kernels must actually differ: exp(-3/3) vs exp(-5/5) happen to
	// agree, so compare on the weights of the off-nearest pairs instead.
	wl1 := l1.W.At(0, 1)
	wl2 := l2.W.At(0, 1)
	if math.Abs(wl1-math.Exp(-1)) > 1e-12 {
		t.Errorf("L1 weight %v, want exp(-1)", wl1)
	}
	if math.Abs(wl2-math.Exp(-1)) > 1e-12 {
		t.Errorf("L2 weight %v, want exp(-1)", wl2)
	}
}

func TestBuildL1VersusL2Numerically(t *testing.T) {
	// Asymmetric cloud where L1 and L2 orderings and magnitudes differ.
	pts := [][]float64{{0, 0}, {3, 4}, {-5, 1}, {2, -6}}
	cfg := DefaultConfig()
	cfg.K = 2

	l2, err := BuildNNGraph(pts, cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.UseL1 = true
	l1, err := BuildNNGraph(pts, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if l1.Sigma == l2.Sigma {
		t.Error("L1 and L2 bandwidths should differ on this cloud")
	}
	same := true
	l1.W.Iterate(func(i, j int, v float64) {
		if math.Abs(v-l2.W.At(i, j)) > 1e-12 {
			same = false
		}
	})
	if same {
		t.Error("L1 and L2 weight matrices should differ numerically")
	}
}

func TestBuildDeterministic(t *testing.T) {
	pts := [][]float64{{0.1, 0.2}, {0.4, 0.4}, {0.9, 0.1}, {0.5, 0.8}, {0.2, 0.7}, {0.7, 0.6}}
	for _, flann := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.K = 2
		cfg.UseFlann = flann

		a, err := BuildNNGraph(pts, cfg)
		if err != nil {
			t.Fatal(err)
		}
		b, err := BuildNNGraph(pts, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !a.W.Equal(b.W) {
			t.Errorf("flann=%v: rebuild produced a different weight matrix", flann)
		}
		if a.Sigma != b.Sigma {
			t.Errorf("flann=%v: rebuild produced a different sigma", flann)
		}
		for i := range a.Coords {
			for j := range a.Coords[i] {
				if a.Coords[i][j] != b.Coords[i][j] {
					t.Fatalf("flann=%v: coordinates differ at (%d,%d)", flann, i, j)
				}
			}
		}
	}
}

func TestBuildCoincidentPoints(t *testing.T) {
	// All points identical: every neighbor distance is zero, the derived
	// bandwidth collapses, and the build reports it instead of emitting
	// NaN weights.
	pts := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	cfg := DefaultConfig()
	cfg.K = 1
	if _, err := BuildNNGraph(pts, cfg); !errors.Is(err, ErrZeroBandwidth) {
		t.Errorf("expected ErrZeroBandwidth, got %v", err)
	}

	// An explicit bandwidth rescues the degenerate cloud: coincident
	// points are perfectly similar.
	cfg.Sigma = 1
	g, err := BuildNNGraph(pts, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.W.At(0, 1) != 1 {
		t.Errorf("coincident pair weight %v, want 1", g.W.At(0, 1))
	}
}

func TestBuildExplicitSigmaWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 1
	cfg.Sigma = 4

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.Sigma != 4 {
		t.Errorf("sigma %v, want the configured 4", g.Sigma)
	}
	want := math.Exp(-1.0 / 4)
	if got := g.W.At(0, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("W[0][1] = %v, want %v", got, want)
	}
}

func TestBuildCenteredCoordinates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 1
	cfg.Center = true

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range g.Coords {
		for _, v := range row {
			if math.Abs(v) != 0.5 {
				t.Errorf("centered coordinate %v, want +-0.5", v)
			}
		}
	}
}

func TestBuildDecoration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 1

	g, err := BuildNNGraph(unitSquare(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if g.Laplacian == nil || g.LapType != LapCombinatorial {
		t.Error("full decoration must include the combinatorial Laplacian")
	}
	if len(g.Degrees) != g.N {
		t.Fatalf("degrees length %d", len(g.Degrees))
	}
	for i, s := range g.Laplacian.Degrees() {
		if math.Abs(s) > 1e-12 {
			t.Errorf("laplacian row %d sums to %v", i, s)
		}
	}
	if len(g.PlotLimits) != 4 {
		t.Errorf("plot limits %v, want 4 entries for 2-D", g.PlotLimits)
	}

	light := cfg
	light.Light = true
	lg, err := BuildNNGraph(unitSquare(), light)
	if err != nil {
		t.Fatal(err)
	}
	if lg.Laplacian != nil {
		t.Error("lightweight decoration must skip the Laplacian")
	}
	if len(lg.Degrees) != lg.N {
		t.Error("lightweight decoration must still fill degrees")
	}
}
