package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/jaylondental/clinic-api/pkg/logging"
)

// Handler serves the admin dashboard stats.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the dashboard handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Stats handles GET /admin/dashboard.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", "error", err)
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}
