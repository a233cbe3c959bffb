// Package http exposes a Lattice engine over HTTP: JSON endpoints for
// pushing values and inspecting columns, plus a server-sent events
// stream for watching a run compute.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Engine defines the surface of the dataflow core the server drives.
type Engine interface {
	Push(ctx context.Context, column, value string) error
	Run(ctx context.Context) *lattice.Run
	Value(ctx context.Context, column string, step int) (string, bool, error)
	Len(ctx context.Context, column string) (int, error)
	Columns() []string
	Levels() [][]string
	Dependents(column string) ([]string, error)
}

// Server routes HTTP requests to an Engine.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Get("/graph", s.graph)
	r.Post("/run", s.run)
	r.Route("/columns/{name}", func(r chi.Router) {
		r.Post("/values", s.push)
		r.Get("/values/{step}", s.value)
		r.Get("/dependents", s.dependents)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// graph reports the registered columns, their evaluation levels, and
// each column's transitive dependents.
func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	type node struct {
		Name       string   `json:"name"`
		Dependents []string `json:"dependents"`
	}
	columns := s.engine.Columns()
	nodes := make([]node, 0, len(columns))
	for _, name := range columns {
		deps, err := s.engine.Dependents(name)
		if err != nil {
			http.Error(w, fmt.Sprintf("graph error: %v", err), http.StatusInternalServerError)
			s.logger.Error("graph inspection failed", "column", name, "err", err)
			return
		}
		nodes = append(nodes, node{Name: name, Dependents: deps})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": nodes,
		"levels":  s.engine.Levels(),
	})
}

func (s *Server) push(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("push: invalid request body", "err", err)
		return
	}

	if err := s.engine.Push(r.Context(), name, body.Value); err != nil {
		status := statusFor(err)
		http.Error(w, fmt.Sprintf("push error: %v", err), status)
		s.logger.Warn("push failed", "column", name, "err", err)
		return
	}

	length, err := s.engine.Len(r.Context(), name)
	if err != nil {
		http.Error(w, fmt.Sprintf("push error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"column": name, "step": length - 1})
}

func (s *Server) value(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 0 {
		http.Error(w, "invalid step", http.StatusBadRequest)
		return
	}

	value, ok, err := s.engine.Value(r.Context(), name, step)
	if err != nil {
		http.Error(w, fmt.Sprintf("value error: %v", err), statusFor(err))
		s.logger.Warn("value lookup failed", "column", name, "step", step, "err", err)
		return
	}
	if !ok {
		http.Error(w, "step not computed", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": name, "step": step, "value": value})
}

func (s *Server) dependents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	deps, err := s.engine.Dependents(name)
	if err != nil {
		http.Error(w, fmt.Sprintf("dependents error: %v", err), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"column": name, "dependents": deps})
}

// run starts one catch-up pass and streams its events as SSE until the
// run finishes or the client disconnects.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	runID := uuid.NewString()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Run-Id", runID)

	s.logger.Info("run started", "run_id", runID)
	run := s.engine.Run(r.Context())

	fmt.Fprintf(w, "event: run\ndata: {\"run_id\":%q}\n\n", runID)
	flusher.Flush()

	for ev := range run.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("run event encode failed", "run_id", runID, "err", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
		flusher.Flush()
	}

	if err := run.Err(); err != nil {
		s.logger.Error("run failed", "run_id", runID, "err", err)
		fmt.Fprintf(w, "event: error\ndata: {\"error\":%q}\n\n", err.Error())
		flusher.Flush()
		return
	}
	fmt.Fprintf(w, "event: done\ndata: {\"run_id\":%q}\n\n", runID)
	flusher.Flush()
	s.logger.Info("run finished", "run_id", runID)
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrColumnNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
