package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jaylondental/clinic-api/pkg/logging"
)

// contactMailer is the slice of Mailer the contact endpoint uses.
type contactMailer interface {
	SendContactMessage(ctx context.Context, fromName, fromEmail, message string) error
}

// ContactHandler handles the public contact form.
type ContactHandler struct {
	mailer contactMailer
	logger *logging.Logger
}

// NewContactHandler creates the contact form handler.
func NewContactHandler(mailer contactMailer, logger *logging.Logger) *ContactHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactHandler{mailer: mailer, logger: logger}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit handles POST /contact. Delivery failures are logged and answered
// with a generic error so form users never see provider details.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.Message == "" {
		http.Error(w, "name, email and message are required", http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		http.Error(w, "invalid email address", http.StatusBadRequest)
		return
	}

	if err := h.mailer.SendContactMessage(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.logger.Error("failed to relay contact message", "error", err, "from", req.Email)
		http.Error(w, "your message could not be sent right now, please try again later",
			http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "thanks, we will get back to you soon"})
}
