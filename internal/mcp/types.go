package mcp

// --- Tool Arguments ---

type LoadDatasetArgs struct {
	Name      string      `json:"name" jsonschema:"Name to register the dataset under,required"`
	Points    [][]float64 `json:"points" jsonschema:"The point cloud, one coordinate row per point,required"`
	Precision string      `json:"precision,omitempty" jsonschema:"Storage precision, 'float64' (default) or 'float16'"`
}

type LoadDatasetResult struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Dim    int    `json:"dim"`
}

type ListDatasetsArgs struct{}

type ListDatasetsResult struct {
	Datasets []DatasetEntry `json:"datasets"`
}

type DatasetEntry struct {
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Dim       int    `json:"dim"`
	Precision string `json:"precision"`
}

type BuildGraphArgs struct {
	Dataset        string  `json:"dataset" jsonschema:"Name of a loaded dataset,required"`
	Mode           string  `json:"mode,omitempty" jsonschema:"Neighbor-search mode, 'knn' (default) or 'radius'"`
	K              int     `json:"k,omitempty" jsonschema:"Neighbors per point in knn mode (default 10)"`
	Epsilon        float64 `json:"epsilon,omitempty" jsonschema:"Connection radius in radius mode (default 0.01)"`
	Sigma          float64 `json:"sigma,omitempty" jsonschema:"Kernel bandwidth; omit to derive it from the data"`
	UseL1          bool    `json:"use_l1,omitempty" jsonschema:"Use the Manhattan distance and linear-exponential kernel"`
	UseFlann       bool    `json:"use_flann,omitempty" jsonschema:"Use approximate accelerated neighbor search"`
	Center         bool    `json:"center,omitempty" jsonschema:"Recenter the cloud before searching"`
	Rescale        bool    `json:"rescale,omitempty" jsonschema:"Rescale the cloud into the unit ball before searching"`
	SymmetrizeType string  `json:"symmetrize_type,omitempty" jsonschema:"How to force symmetry, 'average' (default) or 'full'"`
}

type BuildGraphResult struct {
	Dataset   string  `json:"dataset"`
	N         int     `json:"n"`
	Edges     int     `json:"edges"`
	AvgDegree float64 `json:"avg_degree"`
	Sigma     float64 `json:"sigma"`
	GraphType string  `json:"graph_type"`
}

type ClassifyPointsArgs struct {
	Dataset string `json:"dataset" jsonschema:"Name of a loaded dataset,required"`
	Labels  []int  `json:"labels" jsonschema:"Class label per point; consulted only where the mask is true,required"`
	Mask    []bool `json:"mask" jsonschema:"True where the label is observed; false labels get predicted,required"`
}

type ClassifyPointsResult struct {
	Labels []int `json:"labels"`
}
