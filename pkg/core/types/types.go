// Package types holds the small value types shared between the search,
// graph and server layers, so that they can depend on each other without
// import cycles.
package types

// Candidate is the internal search-result element used by the exact and
// approximate nearest-neighbor searches, with internal ID and distance.
type Candidate struct {
	ID       uint32
	Distance float64
}

// Neighbor is one entry of a neighbor set: point Row has point Col at the
// given distance. Triples with the same (Row, Col) may repeat; consumers
// are expected to accumulate them.
type Neighbor struct {
	Row  int
	Col  int
	Dist float64
}

// DatasetInfo models the public-facing information about a stored point
// cloud, intended for serialization in API responses.
type DatasetInfo struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Dim       int    `json:"dim"`
	Precision string `json:"precision"`
}
