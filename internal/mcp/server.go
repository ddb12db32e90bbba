// Package mcp exposes the graph toolbox over the Model Context Protocol,
// so agents can load point clouds, build similarity graphs and classify
// points through typed tool calls.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/gspkit/internal/server"
)

// NewMCPServer wires the toolbox tools onto an MCP server sharing the
// given dataset registry.
func NewMCPServer(store *server.Store) *mcp.Server {
	service := NewService(store)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "gspkit",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "load_dataset",
		Description: "Register a point cloud under a name for later graph building.",
	}, service.LoadDataset)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_datasets",
		Description: "List the registered datasets with their sizes and precisions.",
	}, service.ListDatasets)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "build_graph",
		Description: "Build a nearest-neighbor similarity graph over a dataset and report its shape.",
	}, service.BuildGraph)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "classify_points",
		Description: "Predict missing class labels by propagating observed labels over the similarity graph.",
	}, service.ClassifyPoints)

	return s
}
