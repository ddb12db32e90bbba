// This file defines the Node struct, the building block of the HNSW graph.
package hnsw

// node is a single point in the index together with its layered adjacency.
type node struct {
	id uint32
	// point is the coordinate row. Treated as immutable once inserted.
	point []float64
	// connections[l] lists the neighbor IDs at layer l; connections[0] is
	// the base layer that contains every node.
	connections [][]uint32
}

func (n *node) level() int {
	return len(n.connections) - 1
}
