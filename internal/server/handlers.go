package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanonone/gspkit/pkg/gsp"
	"github.com/sanonone/gspkit/pkg/metrics"
)

// registerHTTPHandlers wires the authenticated API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /datasets", s.handleListDatasets)
	mux.HandleFunc("PUT /datasets/{name}", s.handlePutDataset)
	mux.HandleFunc("GET /datasets/{name}", s.handleGetDataset)
	mux.HandleFunc("DELETE /datasets/{name}", s.handleDeleteDataset)
	mux.HandleFunc("POST /datasets/{name}/graph", s.handleBuildGraph)
	mux.HandleFunc("GET /datasets/{name}/graph", s.handleGetGraph)
	mux.HandleFunc("POST /datasets/{name}/classify", s.handleClassify)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handlePutDataset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req PutDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	d, err := s.store.Put(name, req.Points, req.Precision)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, d.Info())
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	d, ok := s.store.Get(r.PathValue("name"))
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	writeJSON(w, http.StatusOK, d.Info())
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("name")) {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.store.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	var req BuildGraphRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}
	cfg := s.buildConfig(req)

	// Large clouds build in the background; the client polls the task.
	if req.Async || d.Len() >= s.asyncThreshold {
		task := s.taskManager.NewTask()
		go func() {
			task.SetStatus(TaskStatusRunning)
			task.SetProgress(fmt.Sprintf("building %s graph over %d points", cfg.Mode, d.Len()))
			summary, err := s.buildGraph(name, d, cfg)
			if err != nil {
				task.SetError(err)
				return
			}
			task.Complete(summary)
		}()
		writeJSON(w, http.StatusAccepted, TaskStartedResponse{TaskID: task.ID, Status: string(TaskStatusStarted)})
		return
	}

	summary, err := s.buildGraph(name, d, cfg)
	if err != nil {
		writeError(w, buildErrorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.store.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	g, cfg := d.Graph()
	if g == nil {
		writeError(w, http.StatusNotFound, "no graph built for this dataset yet")
		return
	}
	writeJSON(w, http.StatusOK, summarize(name, g, cfg))
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	d, ok := s.store.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	g, _ := d.Graph()
	if g == nil {
		// No explicit build yet: construct one with the server defaults.
		cfg := s.defaults.Graph.ToGSP()
		var err error
		if _, err = s.buildGraph(name, d, cfg); err != nil {
			writeError(w, buildErrorStatus(err), err.Error())
			return
		}
		g, _ = d.Graph()
	}

	labels, err := gsp.ClassifyKNN(g, req.Labels, req.Mask)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{Labels: labels})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.taskManager.GetTask(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	snapshot := task.Snapshot()
	writeJSON(w, http.StatusOK, &snapshot)
}

// buildGraph runs the construction, records metrics and caches the result
// on the dataset.
func (s *Server) buildGraph(name string, d *Dataset, cfg gsp.Config) (GraphSummary, error) {
	start := time.Now()
	g, err := gsp.BuildNNGraph(d.Points(), cfg)
	if err != nil {
		return GraphSummary{}, err
	}
	metrics.GraphBuildsTotal.WithLabelValues(cfg.Mode).Inc()
	metrics.GraphBuildDuration.WithLabelValues(cfg.Mode).Observe(time.Since(start).Seconds())

	d.SetGraph(g, cfg)
	return summarize(name, g, cfg), nil
}

// buildConfig merges the request overrides over the server defaults.
func (s *Server) buildConfig(req BuildGraphRequest) gsp.Config {
	cfg := s.defaults.Graph.ToGSP()
	if req.Mode != nil {
		cfg.Mode = *req.Mode
	}
	if req.K != nil {
		cfg.K = *req.K
	}
	if req.Epsilon != nil {
		cfg.Epsilon = *req.Epsilon
	}
	if req.Sigma != nil {
		cfg.Sigma = *req.Sigma
	}
	if req.UseL1 != nil {
		cfg.UseL1 = *req.UseL1
	}
	if req.UseFlann != nil {
		cfg.UseFlann = *req.UseFlann
	}
	if req.UseFull != nil {
		cfg.UseFull = *req.UseFull
	}
	if req.Center != nil {
		cfg.Center = *req.Center
	}
	if req.Rescale != nil {
		cfg.Rescale = *req.Rescale
	}
	if req.SymmetrizeType != nil {
		cfg.SymmetrizeType = *req.SymmetrizeType
	}
	if req.Light != nil {
		cfg.Light = *req.Light
	}
	return cfg
}

func summarize(name string, g *gsp.Graph, cfg gsp.Config) GraphSummary {
	avg := 0.0
	if g.N > 0 {
		avg = float64(g.W.NNZ()) / float64(g.N)
	}
	return GraphSummary{
		Dataset:   name,
		N:         g.N,
		Edges:     g.W.NNZ(),
		AvgDegree: avg,
		Sigma:     g.Sigma,
		GraphType: g.GraphType,
		Mode:      cfg.Mode,
	}
}

// buildErrorStatus maps builder errors to HTTP statuses: configuration
// problems are the client's fault, contract violations are ours.
func buildErrorStatus(err error) int {
	switch {
	case errors.Is(err, gsp.ErrUnknownGraphType),
		errors.Is(err, gsp.ErrUnknownSymmetrizeType),
		errors.Is(err, gsp.ErrZeroBandwidth):
		return http.StatusBadRequest
	case errors.Is(err, gsp.ErrWeightsNotSquare):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
