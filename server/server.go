// Package server exposes a graph.Service over HTTP/JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/smallnest/stepgraph/graph"
	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Server routes HTTP requests to a graph.Service.
type Server struct {
	svc    *graph.Service
	logger log.Logger
	mux    *http.ServeMux
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server for svc
func New(svc *graph.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: log.GetDefaultLogger(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /graph/create", s.handleCreateGraph)
	s.mux.HandleFunc("POST /graph/run", s.handleRunGraph)
	s.mux.HandleFunc("GET /graph/state/{run_id}", s.handleRunState)
	s.mux.HandleFunc("GET /graph/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /graphs", s.handleListGraphs)
	s.mux.HandleFunc("GET /graphs/{graph_id}/mermaid", s.handleMermaid)
	s.mux.HandleFunc("GET /nodes", s.handleNodes)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if !s.decode(w, r, &req) {
		return
	}

	g, err := s.svc.BuildGraph(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreateGraphResponse{
		GraphID: g.ID,
		Message: "Graph created successfully",
	})
}

func (s *Server) handleRunGraph(w http.ResponseWriter, r *http.Request) {
	var req RunGraphRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.GraphID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "graph_id is required"})
		return
	}

	res, err := s.svc.RunGraph(r.Context(), req.GraphID, req.InitialState)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RunGraphResponse{
		RunID:      res.RunID,
		FinalState: res.State,
		Log:        res.Log,
		Status:     res.Status,
	})
}

func (s *Server) handleRunState(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.GetRun(r.Context(), r.PathValue("run_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunState(run))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		GraphID: r.URL.Query().Get("graph_id"),
		Status:  store.RunStatus(r.URL.Query().Get("status")),
	}

	runs, err := s.svc.ListRuns(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := RunListResponse{Runs: make([]RunStateResponse, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, newRunState(run))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := s.svc.Graphs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := GraphListResponse{Graphs: make([]GraphSummary, 0, len(graphs))}
	for _, g := range graphs {
		resp.Graphs = append(resp.Graphs, newGraphSummary(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Graph(r.Context(), r.PathValue("graph_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(g.DrawMermaid()))
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: s.svc.Registry().Names()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Message: "Server is running"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	resp := ErrorResponse{Detail: err.Error()}

	var nodeErr *graph.NodeError
	if errors.As(err, &nodeErr) {
		resp.RunID = nodeErr.RunID
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, resp)
}

func statusOf(err error) int {
	switch graph.KindOf(err) {
	case graph.KindInvalidInput:
		return http.StatusBadRequest
	case graph.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
