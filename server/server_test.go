package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallnest/stepgraph/graph"
	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := graph.NewRegistry()
	reg.RegisterFunc("a", func(ctx context.Context, s graph.State) (graph.State, error) {
		s["x"] = 1
		return s, nil
	})
	reg.RegisterFunc("b", func(ctx context.Context, s graph.State) (graph.State, error) {
		s["_finished"] = true
		return s, nil
	})
	reg.RegisterFunc("loop", func(ctx context.Context, s graph.State) (graph.State, error) {
		s["_next_node"] = "loop"
		return s, nil
	})
	reg.RegisterFunc("explode", func(ctx context.Context, s graph.State) (graph.State, error) {
		return nil, errors.New("explode failed")
	})

	runs := memory.NewMemoryRunStore()
	noop := log.NoOpLogger{}
	svc := graph.NewService(reg, graph.NewMemoryGraphStore(), runs, graph.NewExecutor(runs, graph.WithLogger(noop)))

	ts := httptest.NewServer(New(svc, WithLogger(noop)))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			rdr = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createGraph(t *testing.T, ts *httptest.Server, body string) int {
	t.Helper()
	return doJSON(t, http.MethodPost, ts.URL+"/graph/create", body, nil)
}

func TestServer_CreateRunPoll(t *testing.T) {
	ts := newTestServer(t)

	var created CreateGraphResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/graph/create", `{
		"graph_id": "demo",
		"nodes": ["a", "b"],
		"edges": {"a": "b", "b": null},
		"start_node": "a"
	}`, &created)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demo", created.GraphID)
	assert.Equal(t, "Graph created successfully", created.Message)

	var ran RunGraphResponse
	code = doJSON(t, http.MethodPost, ts.URL+"/graph/run", RunGraphRequest{
		GraphID:      "demo",
		InitialState: map[string]any{"code": "def f(): pass"},
	}, &ran)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "run_1", ran.RunID)
	assert.Equal(t, "completed", string(ran.Status))
	assert.Equal(t, float64(1), ran.FinalState["x"])
	require.Len(t, ran.Log, 2)
	assert.Equal(t, 1, ran.Log[0].Step)
	assert.Equal(t, "a", ran.Log[0].NodeID)
	assert.Equal(t, "b", ran.Log[1].NodeID)

	var polled RunStateResponse
	code = doJSON(t, http.MethodGet, ts.URL+"/graph/state/"+ran.RunID, nil, &polled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demo", polled.GraphID)
	assert.Equal(t, ran.Status, polled.Status)
	assert.Equal(t, ran.Log, polled.Log)
	assert.Equal(t, "def f(): pass", polled.State["code"])

	var listed RunListResponse
	code = doJSON(t, http.MethodGet, ts.URL+"/graph/runs?graph_id=demo&status=completed", nil, &listed)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listed.Runs, 1)
	assert.Equal(t, "run_1", listed.Runs[0].RunID)

	var graphs GraphListResponse
	code = doJSON(t, http.MethodGet, ts.URL+"/graphs", nil, &graphs)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, graphs.Graphs, 1)
	assert.Equal(t, graph.DefaultMaxSteps, graphs.Graphs[0].MaxSteps)
	assert.Equal(t, map[string]string{"a": "b", "b": ""}, graphs.Graphs[0].Edges)
}

func TestServer_LogWireFormat(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, createGraph(t, ts, `{"graph_id": "g", "nodes": ["a"], "edges": {}, "start_node": "a"}`))

	var raw map[string]any
	code := doJSON(t, http.MethodPost, ts.URL+"/graph/run", `{"graph_id": "g", "initial_state": {}}`, &raw)
	require.Equal(t, http.StatusOK, code)

	entries := raw["log"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	for _, key := range []string{"step", "node_id", "duration_ms", "summary"} {
		assert.Contains(t, entry, key)
	}
}

func TestServer_MaxSteps(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, createGraph(t, ts, `{
		"graph_id": "spin", "nodes": ["loop"], "edges": {"loop": null}, "start_node": "loop", "max_steps": 3
	}`))

	var ran RunGraphResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/graph/run", `{"graph_id": "spin", "initial_state": {}}`, &ran)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "max_steps_reached", string(ran.Status))
	assert.Len(t, ran.Log, 3)
	assert.NotContains(t, ran.FinalState, "_next_node")
}

func TestServer_Errors(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, createGraph(t, ts, `{"graph_id": "boom", "nodes": ["explode"], "start_node": "explode"}`))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		detail string
	}{
		{"unregistered node", http.MethodPost, "/graph/create", `{"graph_id": "x", "nodes": ["ghost"], "start_node": "ghost"}`, http.StatusBadRequest, "ghost"},
		{"bad start node", http.MethodPost, "/graph/create", `{"graph_id": "x", "nodes": ["a"], "start_node": "b"}`, http.StatusBadRequest, "start node"},
		{"malformed json", http.MethodPost, "/graph/create", `{"graph_id": `, http.StatusBadRequest, "invalid request body"},
		{"run without graph id", http.MethodPost, "/graph/run", `{"initial_state": {}}`, http.StatusBadRequest, "graph_id"},
		{"unknown graph", http.MethodPost, "/graph/run", `{"graph_id": "nope", "initial_state": {}}`, http.StatusNotFound, "nope"},
		{"unknown run", http.MethodGet, "/graph/state/run_404", nil, http.StatusNotFound, "run_404"},
		{"unknown mermaid graph", http.MethodGet, "/graphs/nope/mermaid", nil, http.StatusNotFound, "graph not found"},
		{"node failure", http.MethodPost, "/graph/run", `{"graph_id": "boom", "initial_state": {}}`, http.StatusInternalServerError, "explode failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			code := doJSON(t, tt.method, ts.URL+tt.path, tt.body, &resp)
			assert.Equal(t, tt.status, code)
			assert.Contains(t, resp.Detail, tt.detail)
		})
	}
}

func TestServer_NodeFailureRunIsPollable(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, createGraph(t, ts, `{"graph_id": "boom", "nodes": ["explode"], "start_node": "explode"}`))

	var failed ErrorResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/graph/run", `{"graph_id": "boom", "initial_state": {}}`, &failed)
	require.Equal(t, http.StatusInternalServerError, code)
	require.NotEmpty(t, failed.RunID)

	var polled RunStateResponse
	code = doJSON(t, http.MethodGet, ts.URL+"/graph/state/"+failed.RunID, nil, &polled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "failed", string(polled.Status))
	assert.Equal(t, "explode failed", polled.Error)
}

func TestServer_Mermaid(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, createGraph(t, ts, `{"graph_id": "demo", "nodes": ["a", "b"], "edges": {"a": "b"}, "start_node": "a"}`))

	resp, err := http.Get(ts.URL + "/graphs/demo/mermaid")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), "flowchart TD")
	assert.Contains(t, string(body), "a --> b")
	assert.Contains(t, string(body), "b --> END")
}

func TestServer_NodesAndHealth(t *testing.T) {
	ts := newTestServer(t)

	var nodes NodeListResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/nodes", nil, &nodes))
	assert.Equal(t, []string{"a", "b", "explode", "loop"}, nodes.Nodes)

	var health HealthResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, ts.URL+"/health", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "Server is running", health.Message)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/graph/run")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(graph.ErrInvalidDefinition))
	assert.Equal(t, http.StatusNotFound, statusOf(graph.ErrGraphNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusOf(&graph.NodeError{Err: errors.New("x")}))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("unclassified")))
}
