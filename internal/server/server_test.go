package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	s := NewServer(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealthzAndAuth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuthToken = "test-secret-token"
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("healthz expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/datasets")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("protected expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", ts.URL+"/datasets", "test-secret-token", nil)
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("protected with token expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("metrics expected 200 without token, got %d", resp.StatusCode)
	}
}

func TestDatasetGraphClassifyRoundTrip(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	square := PutDatasetRequest{Points: [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}}
	resp := doJSON(t, "PUT", ts.URL+"/datasets/square", "", square)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put dataset: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	k := 1
	sym := "full"
	build := BuildGraphRequest{K: &k, SymmetrizeType: &sym}
	resp = doJSON(t, "POST", ts.URL+"/datasets/square/graph", "", build)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("build graph: status %d", resp.StatusCode)
	}
	summary := decode[GraphSummary](t, resp)
	if summary.N != 4 {
		t.Errorf("summary N = %d, want 4", summary.N)
	}
	if summary.Sigma != 1 {
		t.Errorf("summary sigma = %v, want 1", summary.Sigma)
	}

	// The graph is cached and retrievable.
	resp = doJSON(t, "GET", ts.URL+"/datasets/square/graph", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get graph: status %d", resp.StatusCode)
	}
	cached := decode[GraphSummary](t, resp)
	if cached.Edges != summary.Edges {
		t.Errorf("cached summary differs: %d vs %d edges", cached.Edges, summary.Edges)
	}

	classify := ClassifyRequest{
		Labels: []int{0, 0, 1, 1},
		Mask:   []bool{true, false, true, false},
	}
	resp = doJSON(t, "POST", ts.URL+"/datasets/square/classify", "", classify)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("classify: status %d", resp.StatusCode)
	}
	got := decode[ClassifyResponse](t, resp)
	if len(got.Labels) != 4 {
		t.Fatalf("classify returned %d labels", len(got.Labels))
	}

	resp = doJSON(t, "DELETE", ts.URL+"/datasets/square", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: status %d", resp.StatusCode)
	}
	resp = doJSON(t, "GET", ts.URL+"/datasets/square", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d", resp.StatusCode)
	}
}

func TestBuildGraphBadConfig(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp := doJSON(t, "PUT", ts.URL+"/datasets/d", "", PutDatasetRequest{Points: [][]float64{{0}, {1}}})
	resp.Body.Close()

	mode := "ball"
	resp = doJSON(t, "POST", ts.URL+"/datasets/d/graph", "", BuildGraphRequest{Mode: &mode})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown mode expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "POST", ts.URL+"/datasets/missing/graph", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing dataset expected 404, got %d", resp.StatusCode)
	}
}

func TestAsyncBuildTask(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp := doJSON(t, "PUT", ts.URL+"/datasets/d", "", PutDatasetRequest{
		Points: [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	})
	resp.Body.Close()

	resp = doJSON(t, "POST", ts.URL+"/datasets/d/graph", "", BuildGraphRequest{Async: true})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("async build expected 202, got %d", resp.StatusCode)
	}
	started := decode[TaskStartedResponse](t, resp)
	if started.TaskID == "" {
		t.Fatal("no task id returned")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp = doJSON(t, "GET", ts.URL+"/tasks/"+started.TaskID, "", nil)
		task := decode[Task](t, resp)
		if task.Status == TaskStatusCompleted {
			break
		}
		if task.Status == TaskStatusFailed {
			t.Fatalf("task failed: %s", task.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("task did not complete, last status %s", task.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFloat16Dataset(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp := doJSON(t, "PUT", ts.URL+"/datasets/compact", "", PutDatasetRequest{
		Points:    [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		Precision: "float16",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("put float16 dataset: status %d", resp.StatusCode)
	}
	info := decode[map[string]any](t, resp)
	if info["precision"] != "float16" {
		t.Errorf("precision %v, want float16", info["precision"])
	}

	// The square's coordinates are exactly representable in float16, so
	// the graph comes out identical to the float64 one.
	k := 1
	resp = doJSON(t, "POST", ts.URL+"/datasets/compact/graph", "", BuildGraphRequest{K: &k})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("build over float16: status %d", resp.StatusCode)
	}
	summary := decode[GraphSummary](t, resp)
	if summary.Sigma != 1 {
		t.Errorf("sigma %v, want 1", summary.Sigma)
	}
}

func TestPutDatasetValidation(t *testing.T) {
	ts := newTestServer(t, DefaultConfig())

	resp := doJSON(t, "PUT", ts.URL+"/datasets/bad", "", PutDatasetRequest{
		Points: [][]float64{{0, 0}, {1}},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("ragged cloud expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "PUT", ts.URL+"/datasets/bad", "", PutDatasetRequest{
		Points:    [][]float64{{0, 0}},
		Precision: "int4",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown precision expected 400, got %d", resp.StatusCode)
	}
}
