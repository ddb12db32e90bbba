// API request and response payloads.
package server

// PutDatasetRequest uploads a point cloud.
type PutDatasetRequest struct {
	Points [][]float64 `json:"points"`
	// Precision selects the storage representation: "float64" (default)
	// or "float16".
	Precision string `json:"precision,omitempty"`
}

// BuildGraphRequest overrides the server's default graph parameters for
// one build. Pointer fields distinguish "absent" from zero values.
type BuildGraphRequest struct {
	Mode           *string  `json:"mode,omitempty"`
	K              *int     `json:"k,omitempty"`
	Epsilon        *float64 `json:"epsilon,omitempty"`
	Sigma          *float64 `json:"sigma,omitempty"`
	UseL1          *bool    `json:"use_l1,omitempty"`
	UseFlann       *bool    `json:"use_flann,omitempty"`
	UseFull        *bool    `json:"use_full,omitempty"`
	Center         *bool    `json:"center,omitempty"`
	Rescale        *bool    `json:"rescale,omitempty"`
	SymmetrizeType *string  `json:"symmetrize_type,omitempty"`
	Light          *bool    `json:"light,omitempty"`
	// Async forces background execution regardless of the size
	// threshold.
	Async bool `json:"async,omitempty"`
}

// GraphSummary is the API view of a built graph; the weight matrix itself
// stays server-side.
type GraphSummary struct {
	Dataset   string  `json:"dataset"`
	N         int     `json:"n"`
	Edges     int     `json:"edges"`
	AvgDegree float64 `json:"avg_degree"`
	Sigma     float64 `json:"sigma"`
	GraphType string  `json:"graph_type"`
	Mode      string  `json:"mode"`
}

// TaskStartedResponse acknowledges an asynchronous build.
type TaskStartedResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ClassifyRequest runs graph-based classification: labels[i] is the class
// of vertex i and is consulted only where mask[i] is true.
type ClassifyRequest struct {
	Labels []int  `json:"labels"`
	Mask   []bool `json:"mask"`
}

// ClassifyResponse returns a predicted class per vertex.
type ClassifyResponse struct {
	Labels []int `json:"labels"`
}

type errorResponse struct {
	Error string `json:"error"`
}
