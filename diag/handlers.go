package diag

import (
	"encoding/json"
	"net/http"

	"github.com/baxromumarov/greenpatch/primitive"
)

// PrimitiveStatus is one row of GET /primitives.
type PrimitiveStatus struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
	Active    bool   `json:"active"`
}

// ThreadStatus is one row of GET /threads.
type ThreadStatus struct {
	Name   string `json:"name"`
	Ident  uint64 `json:"ident"`
	Alive  bool   `json:"alive"`
	Daemon bool   `json:"daemon"`
}

// ThreadsResponse is the body of GET /threads.
type ThreadsResponse struct {
	Tracking bool           `json:"tracking"`
	Active   int            `json:"active"`
	Threads  []ThreadStatus `json:"threads"`
}

type handler struct {
	src Sources
}

func (h *handler) primitives(w http.ResponseWriter, _ *http.Request) {
	rows := make([]PrimitiveStatus, 0, len(primitive.Names()))
	if env := h.src.Env; env != nil {
		reg := env.Registry()
		for _, name := range primitive.Names() {
			rows = append(rows, PrimitiveStatus{
				Name:      string(name),
				Installed: reg.Installed(name),
				Active:    env.IsActive(name),
			})
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) threads(w http.ResponseWriter, _ *http.Request) {
	resp := ThreadsResponse{Threads: []ThreadStatus{}}
	if t := h.src.Tracker; t != nil {
		resp.Tracking = t.Enabled()
		resp.Active = t.ActiveCount()
		for _, th := range t.Enumerate() {
			resp.Threads = append(resp.Threads, ThreadStatus{
				Name:   th.Name(),
				Ident:  th.Ident(),
				Alive:  th.IsAlive(),
				Daemon: th.IsDaemon(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) offload(w http.ResponseWriter, _ *http.Request) {
	if h.src.Pool == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "offload pool not configured"})
		return
	}
	writeJSON(w, http.StatusOK, h.src.Pool.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
