// This file contains the Index struct and its methods for building and
// querying the HNSW graph. Unlike a full database index there are no
// deletions and no quantization: the graph toolbox builds an index once per
// point cloud and only queries it afterwards.
package hnsw

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sanonone/gspkit/pkg/core/distance"
	"github.com/sanonone/gspkit/pkg/core/types"
)

// Index is the hierarchical graph structure.
type Index struct {
	mu sync.RWMutex

	// HNSW parameters.
	m              int // max connections per node per layer [default 16]
	mMax0          int // max connections at layer 0 (2*m by convention)
	efConstruction int // candidate-list size during insertion [default 200]

	// ml is the normalization factor for the level distribution.
	ml float64

	entrypointID uint32
	maxLevel     int

	nodes []*node

	metric distance.Metric
	dist   distance.Func

	// rng drives level sampling. A fixed seed keeps repeated builds over
	// the same input identical, which the graph builder relies on.
	rng *rand.Rand
}

// New creates an empty index. m and efConstruction fall back to the usual
// defaults when non-positive.
func New(m, efConstruction int, metric distance.Metric) (*Index, error) {
	if m <= 0 {
		m = 16
	}
	if efConstruction <= 0 {
		efConstruction = 200
	}
	fn, err := distance.Get(metric)
	if err != nil {
		return nil, fmt.Errorf("hnsw: %w", err)
	}
	return &Index{
		m:              m,
		mMax0:          m * 2,
		efConstruction: efConstruction,
		ml:             1.0 / math.Log(float64(m)),
		metric:         metric,
		dist:           fn,
		rng:            rand.New(rand.NewSource(1)),
	}, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// Add inserts a point. IDs are assigned sequentially in insertion order,
// so index i of the source cloud becomes node ID i.
func (ix *Index) Add(point []float64) (uint32, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	id := uint32(len(ix.nodes))
	level := ix.randomLevel()
	n := &node{
		id:          id,
		point:       point,
		connections: make([][]uint32, level+1),
	}
	ix.nodes = append(ix.nodes, n)

	// First node: it becomes the global entry point.
	if len(ix.nodes) == 1 {
		ix.entrypointID = id
		ix.maxLevel = level
		return id, nil
	}

	curr := ix.entrypointID
	// Greedy descent through the layers above the new node's level.
	for l := ix.maxLevel; l > level; l-- {
		var err error
		curr, err = ix.greedyClosest(point, curr, l)
		if err != nil {
			return 0, err
		}
	}

	// From min(level, maxLevel) down to 0, collect candidates and link.
	for l := min(level, ix.maxLevel); l >= 0; l-- {
		found, err := ix.searchLayer(point, curr, ix.efConstruction, l)
		if err != nil {
			return 0, err
		}
		neighbors := ix.selectClosest(found, ix.maxConns(l))
		n.connections[l] = neighbors

		for _, nb := range neighbors {
			ix.link(nb, id, l)
		}
		if len(found) > 0 {
			curr = found[0].ID
		}
	}

	if level > ix.maxLevel {
		ix.maxLevel = level
		ix.entrypointID = id
	}
	return id, nil
}

// SearchKNN returns up to k candidates nearest to the query, sorted by
// increasing distance. ef bounds the dynamic candidate list; when
// non-positive it defaults to max(k, efConstruction).
func (ix *Index) SearchKNN(query []float64, k, ef int) ([]types.Candidate, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.nodes) == 0 {
		return nil, nil
	}
	if ef <= 0 {
		ef = max(k, ix.efConstruction)
	}
	if ef < k {
		ef = k
	}

	curr := ix.entrypointID
	for l := ix.maxLevel; l > 0; l-- {
		var err error
		curr, err = ix.greedyClosest(query, curr, l)
		if err != nil {
			return nil, err
		}
	}

	found, err := ix.searchLayer(query, curr, ef, 0)
	if err != nil {
		return nil, err
	}
	if len(found) > k {
		found = found[:k]
	}
	return found, nil
}

// randomLevel samples a level from the exponential distribution used by
// the original HNSW paper.
func (ix *Index) randomLevel() int {
	return int(math.Floor(-math.Log(ix.rng.Float64()) * ix.ml))
}

func (ix *Index) maxConns(layer int) int {
	if layer == 0 {
		return ix.mMax0
	}
	return ix.m
}

// greedyClosest walks a single layer, always moving to the neighbor
// closest to target, and returns the local minimum.
func (ix *Index) greedyClosest(target []float64, entry uint32, layer int) (uint32, error) {
	curr := entry
	currDist, err := ix.dist(target, ix.nodes[curr].point)
	if err != nil {
		return 0, err
	}
	for {
		improved := false
		n := ix.nodes[curr]
		if layer < len(n.connections) {
			for _, nb := range n.connections[layer] {
				d, err := ix.dist(target, ix.nodes[nb].point)
				if err != nil {
					return 0, err
				}
				if d < currDist {
					curr, currDist = nb, d
					improved = true
				}
			}
		}
		if !improved {
			return curr, nil
		}
	}
}

// searchLayer performs the ef-bounded best-first search of one layer and
// returns the candidates sorted by increasing distance.
func (ix *Index) searchLayer(target []float64, entry uint32, ef, layer int) ([]types.Candidate, error) {
	entryDist, err := ix.dist(target, ix.nodes[entry].point)
	if err != nil {
		return nil, err
	}

	visited := make(map[uint32]bool, ef*4)
	visited[entry] = true

	frontier := &minHeap{{ID: entry, Distance: entryDist}}
	best := &maxHeap{{ID: entry, Distance: entryDist}}

	for frontier.Len() > 0 {
		c := heap.Pop(frontier).(types.Candidate)
		// The nearest unexpanded candidate is already worse than the worst
		// kept result: the search front cannot improve anymore.
		if c.Distance > (*best)[0].Distance && best.Len() >= ef {
			break
		}

		n := ix.nodes[c.ID]
		if layer >= len(n.connections) {
			continue
		}
		for _, nb := range n.connections[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d, err := ix.dist(target, ix.nodes[nb].point)
			if err != nil {
				return nil, err
			}
			if best.Len() < ef || d < (*best)[0].Distance {
				heap.Push(frontier, types.Candidate{ID: nb, Distance: d})
				heap.Push(best, types.Candidate{ID: nb, Distance: d})
				if best.Len() > ef {
					heap.Pop(best)
				}
			}
		}
	}
	return drainAscending(best), nil
}

// selectClosest keeps the m nearest candidate IDs. Candidates arrive
// sorted from searchLayer.
func (ix *Index) selectClosest(cands []types.Candidate, m int) []uint32 {
	if len(cands) > m {
		cands = cands[:m]
	}
	out := make([]uint32, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

// link adds 'to' to the neighbor list of 'from' at the given layer,
// trimming the list back to the layer's connection budget when it
// overflows.
func (ix *Index) link(from, to uint32, layer int) {
	n := ix.nodes[from]
	if layer >= len(n.connections) {
		return
	}
	n.connections[layer] = append(n.connections[layer], to)

	budget := ix.maxConns(layer)
	if len(n.connections[layer]) <= budget {
		return
	}

	// Keep the closest 'budget' neighbors.
	h := &maxHeap{}
	for _, nb := range n.connections[layer] {
		d, err := ix.dist(n.point, ix.nodes[nb].point)
		if err != nil {
			continue
		}
		heap.Push(h, types.Candidate{ID: nb, Distance: d})
		if h.Len() > budget {
			heap.Pop(h)
		}
	}
	trimmed := make([]uint32, 0, h.Len())
	for _, c := range drainAscending(h) {
		trimmed = append(trimmed, c.ID)
	}
	n.connections[layer] = trimmed
}
