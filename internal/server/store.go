package server

import (
	"fmt"
	"sync"

	"github.com/tidwall/btree"

	"github.com/sanonone/gspkit/pkg/core/distance"
	"github.com/sanonone/gspkit/pkg/core/types"
	"github.com/sanonone/gspkit/pkg/gsp"
	"github.com/sanonone/gspkit/pkg/metrics"
)

// Storage precisions for datasets.
const (
	PrecisionFloat64 = "float64"
	PrecisionFloat16 = "float16"
)

// Dataset is a named point cloud plus the most recently built graph over
// it. Points are stored either as float64 rows or, to halve memory on
// large clouds, as float16 bit patterns decoded on demand.
type Dataset struct {
	mu sync.RWMutex

	name      string
	precision string
	dim       int

	rowsF64 [][]float64
	rowsF16 [][]uint16

	graph    *gsp.Graph
	graphCfg gsp.Config
}

// Points returns the cloud as float64 rows. For float16 datasets this
// decodes a fresh copy; the caller owns the result.
func (d *Dataset) Points() [][]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.precision == PrecisionFloat16 {
		out := make([][]float64, len(d.rowsF16))
		for i, bits := range d.rowsF16 {
			out[i] = distance.DecodeRowF16(bits, nil)
		}
		return out
	}
	return d.rowsF64
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.precision == PrecisionFloat16 {
		return len(d.rowsF16)
	}
	return len(d.rowsF64)
}

// Info returns the API-facing description of the dataset.
func (d *Dataset) Info() types.DatasetInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := len(d.rowsF64)
	if d.precision == PrecisionFloat16 {
		n = len(d.rowsF16)
	}
	return types.DatasetInfo{
		Name:      d.name,
		Points:    n,
		Dim:       d.dim,
		Precision: d.precision,
	}
}

// SetGraph caches the most recent graph built over the dataset.
func (d *Dataset) SetGraph(g *gsp.Graph, cfg gsp.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.graph = g
	d.graphCfg = cfg
}

// Graph returns the cached graph, or nil when none was built yet.
func (d *Dataset) Graph() (*gsp.Graph, gsp.Config) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.graph, d.graphCfg
}

// Store is the dataset registry. Names are kept ordered in a B-Tree map
// so listings come out sorted without extra work.
type Store struct {
	mu   sync.RWMutex
	tree btree.Map[string, *Dataset]
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{}
}

// Put validates and stores a point cloud under the given name, replacing
// any previous dataset with that name.
func (s *Store) Put(name string, points [][]float64, precision string) (*Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name must not be empty")
	}
	if precision == "" {
		precision = PrecisionFloat64
	}
	if precision != PrecisionFloat64 && precision != PrecisionFloat16 {
		return nil, fmt.Errorf("unknown precision %q", precision)
	}

	dim := 0
	if len(points) > 0 {
		dim = len(points[0])
	}
	for i, row := range points {
		if len(row) != dim {
			return nil, fmt.Errorf("point %d has dimension %d, expected %d", i, len(row), dim)
		}
	}

	d := &Dataset{name: name, precision: precision, dim: dim}
	switch precision {
	case PrecisionFloat16:
		d.rowsF16 = make([][]uint16, len(points))
		for i, row := range points {
			d.rowsF16[i] = distance.EncodeRowF16(row)
		}
	default:
		d.rowsF64 = points
	}

	s.mu.Lock()
	s.tree.Set(name, d)
	s.mu.Unlock()

	metrics.DatasetPoints.WithLabelValues(name).Set(float64(len(points)))
	return d, nil
}

// Get retrieves a dataset by name.
func (s *Store) Get(name string) (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Get(name)
}

// Delete removes a dataset. It reports whether the name existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	_, existed := s.tree.Delete(name)
	s.mu.Unlock()
	if existed {
		metrics.DatasetPoints.DeleteLabelValues(name)
	}
	return existed
}

// List returns the info of every dataset in name order.
func (s *Store) List() []types.DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.DatasetInfo, 0, s.tree.Len())
	s.tree.Scan(func(_ string, d *Dataset) bool {
		out = append(out, d.Info())
		return true
	})
	return out
}
