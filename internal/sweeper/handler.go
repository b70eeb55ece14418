package sweeper

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// Handler exposes the sweep as an HTTP trigger for external cron. The caller
// authenticates with a shared token, separate from user sessions.
type Handler struct {
	sweeper *Sweeper
	token   string
}

// NewHandler creates the cron trigger handler.
func NewHandler(sweeper *Sweeper, token string) *Handler {
	return &Handler{sweeper: sweeper, token: token}
}

// Trigger handles POST /internal/sweep.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		http.Error(w, "sweep trigger not configured", http.StatusNotFound)
		return
	}
	got := r.Header.Get("X-Sweep-Token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	n, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]int{"cancelled": n})
}
