package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/gspkit/internal/server"
	"github.com/sanonone/gspkit/pkg/gsp"
	"github.com/sanonone/gspkit/pkg/metrics"
)

// Service holds the shared state behind the MCP tools: the same dataset
// registry the HTTP server works on.
type Service struct {
	store *server.Store
}

func NewService(store *server.Store) *Service {
	return &Service{store: store}
}

// --- Tool Handlers ---

func (s *Service) LoadDataset(ctx context.Context, req *mcp.CallToolRequest, args LoadDatasetArgs) (*mcp.CallToolResult, LoadDatasetResult, error) {
	d, err := s.store.Put(args.Name, args.Points, args.Precision)
	if err != nil {
		return nil, LoadDatasetResult{}, err
	}
	info := d.Info()
	return nil, LoadDatasetResult{
		Name:   info.Name,
		Points: info.Points,
		Dim:    info.Dim,
	}, nil
}

func (s *Service) ListDatasets(ctx context.Context, req *mcp.CallToolRequest, args ListDatasetsArgs) (*mcp.CallToolResult, ListDatasetsResult, error) {
	infos := s.store.List()
	out := ListDatasetsResult{Datasets: make([]DatasetEntry, 0, len(infos))}
	for _, info := range infos {
		out.Datasets = append(out.Datasets, DatasetEntry{
			Name:      info.Name,
			Points:    info.Points,
			Dim:       info.Dim,
			Precision: info.Precision,
		})
	}
	return nil, out, nil
}

func (s *Service) BuildGraph(ctx context.Context, req *mcp.CallToolRequest, args BuildGraphArgs) (*mcp.CallToolResult, BuildGraphResult, error) {
	d, ok := s.store.Get(args.Dataset)
	if !ok {
		return nil, BuildGraphResult{}, fmt.Errorf("dataset '%s' not found", args.Dataset)
	}

	cfg := gsp.DefaultConfig()
	if args.Mode != "" {
		cfg.Mode = args.Mode
	}
	if args.K > 0 {
		cfg.K = args.K
	}
	if args.Epsilon > 0 {
		cfg.Epsilon = args.Epsilon
	}
	cfg.Sigma = args.Sigma
	cfg.UseL1 = args.UseL1
	cfg.UseFlann = args.UseFlann
	cfg.Center = args.Center
	cfg.Rescale = args.Rescale
	if args.SymmetrizeType != "" {
		cfg.SymmetrizeType = args.SymmetrizeType
	}

	start := time.Now()
	g, err := gsp.BuildNNGraph(d.Points(), cfg)
	if err != nil {
		return nil, BuildGraphResult{}, err
	}
	metrics.GraphBuildsTotal.WithLabelValues(cfg.Mode).Inc()
	metrics.GraphBuildDuration.WithLabelValues(cfg.Mode).Observe(time.Since(start).Seconds())
	d.SetGraph(g, cfg)

	avg := 0.0
	if g.N > 0 {
		avg = float64(g.W.NNZ()) / float64(g.N)
	}
	return nil, BuildGraphResult{
		Dataset:   args.Dataset,
		N:         g.N,
		Edges:     g.W.NNZ(),
		AvgDegree: avg,
		Sigma:     g.Sigma,
		GraphType: g.GraphType,
	}, nil
}

func (s *Service) ClassifyPoints(ctx context.Context, req *mcp.CallToolRequest, args ClassifyPointsArgs) (*mcp.CallToolResult, ClassifyPointsResult, error) {
	d, ok := s.store.Get(args.Dataset)
	if !ok {
		return nil, ClassifyPointsResult{}, fmt.Errorf("dataset '%s' not found", args.Dataset)
	}

	// Classification needs a graph; build one with the defaults when the
	// caller has not built one yet.
	g, _ := d.Graph()
	if g == nil {
		cfg := gsp.DefaultConfig()
		built, err := gsp.BuildNNGraph(d.Points(), cfg)
		if err != nil {
			return nil, ClassifyPointsResult{}, err
		}
		d.SetGraph(built, cfg)
		g = built
	}

	labels, err := gsp.ClassifyKNN(g, args.Labels, args.Mask)
	if err != nil {
		return nil, ClassifyPointsResult{}, err
	}
	return nil, ClassifyPointsResult{Labels: labels}, nil
}
