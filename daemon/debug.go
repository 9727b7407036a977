package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	metrics "github.com/docker/go-metrics"
	"github.com/gorilla/mux"
)

// debugRouter exposes the daemon's observability surface: the prometheus
// metrics, the recent reconciliation journal, and the applied-peer list.
// Everything served here reads only goroutine-safe state; the directory
// itself stays private to the event loop.
func (d *Daemon) debugRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", d.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/v1/neighbors", d.handleNeighbors).Methods(http.MethodGet)
	r.HandleFunc("/v1/status", d.handleStatus).Methods(http.MethodGet)
	return r
}

func (d *Daemon) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, d.ring.Snapshot())
}

func (d *Daemon) handleNeighbors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, d.neighbors.Peers())
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"uptime": time.Since(d.startedAt).String(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
