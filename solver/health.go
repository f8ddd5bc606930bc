package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthServer exposes the Solver's status over HTTP: /health, /ready,
// /status.
type HealthServer struct {
	solver    *Solver
	server    *http.Server
	startTime time.Time
}

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
	Solves    int    `json:"solves"`
	Running   bool   `json:"running"`
}

// NewHealthServer builds a HealthServer. A non-positive port disables it.
func NewHealthServer(s *Solver, port int) *HealthServer {
	if port <= 0 {
		return nil
	}

	mux := http.NewServeMux()
	hs := &HealthServer{
		solver:    s,
		startTime: time.Now(),
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readinessHandler)
	mux.HandleFunc("/status", hs.statusHandler)

	return hs
}

// Start starts the server in the background.
func (hs *HealthServer) Start() error {
	if hs == nil {
		return nil
	}
	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("solver health server error: %v\n", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (hs *HealthServer) Stop(ctx context.Context) error {
	if hs == nil {
		return nil
	}
	return hs.server.Shutdown(ctx)
}

func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := hs.solver.GetStatus()
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
		Solves:    status.Solves,
		Running:   status.Running,
	}
	if status.LastError != "" {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (hs *HealthServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := hs.solver.GetStatus()
	ready := map[string]any{
		"ready":     !status.Running,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ready); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (hs *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := hs.solver.GetStatus()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
