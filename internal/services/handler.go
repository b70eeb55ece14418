package services

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jaylondental/clinic-api/internal/storage"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

const maxImageBytes = 10 << 20

// repository is what the handler needs from the catalog store.
type repository interface {
	List(ctx context.Context) ([]Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Create(ctx context.Context, s *Service) error
	Update(ctx context.Context, s *Service) error
	Delete(ctx context.Context, id uuid.UUID) (string, error)
}

// Handler handles HTTP requests for the service catalog.
type Handler struct {
	repo    repository
	objects storage.ObjectStore
	logger  *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(repo repository, objects storage.ObjectStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, objects: objects, logger: logger}
}

// serviceResponse adds the resolved image URL to the stored record.
type serviceResponse struct {
	Service
	ImageURL string `json:"image_url,omitempty"`
}

func (h *Handler) toResponse(s Service) serviceResponse {
	resp := serviceResponse{Service: s}
	if s.ImageKey != "" && h.objects != nil {
		resp.ImageURL = h.objects.URL(s.ImageKey)
	}
	return resp
}

// List handles GET /services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	out := make([]serviceResponse, 0, len(list))
	for _, s := range list {
		out = append(out, h.toResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /admin/services (multipart: title, description,
// duration, image).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	svc, file, header, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if file == nil {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	svc.ID = uuid.New()
	svc.ImageKey = "services/" + svc.ID.String() + path.Ext(header.Filename)
	if err := h.objects.Put(r.Context(), svc.ImageKey, header.Header.Get("Content-Type"), file); err != nil {
		h.logger.Error("failed to store service image", "error", err)
		http.Error(w, "failed to store image", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Create(r.Context(), svc); err != nil {
		if errors.Is(err, ErrMissingTitle) || errors.Is(err, ErrInvalidDuration) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create service", "error", err)
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}

	h.logger.Info("service created", "id", svc.ID, "title", svc.Title)
	writeJSON(w, http.StatusCreated, h.toResponse(*svc))
}

// Update handles PUT /admin/services/{id}. The image is optional; when
// absent the stored one is retained.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}
	svc, file, header, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	svc.ID = id

	if file != nil {
		defer file.Close()
		svc.ImageKey = "services/" + id.String() + path.Ext(header.Filename)
		if err := h.objects.Put(r.Context(), svc.ImageKey, header.Header.Get("Content-Type"), file); err != nil {
			h.logger.Error("failed to store service image", "error", err)
			http.Error(w, "failed to store image", http.StatusInternalServerError)
			return
		}
	}

	if err := h.repo.Update(r.Context(), svc); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrMissingTitle), errors.Is(err, ErrInvalidDuration):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update service", "error", err, "id", id)
			http.Error(w, "failed to update service", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /admin/services/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}
	imageKey, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete service", "error", err, "id", id)
		http.Error(w, "failed to delete service", http.StatusInternalServerError)
		return
	}
	if imageKey != "" && h.objects != nil {
		// The record is gone either way; a leaked object is only logged.
		if err := h.objects.Delete(r.Context(), imageKey); err != nil {
			h.logger.Warn("failed to delete service image", "error", err, "key", imageKey)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*Service, multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	duration, err := strconv.Atoi(r.FormValue("duration"))
	if err != nil {
		http.Error(w, ErrInvalidDuration.Error(), http.StatusBadRequest)
		return nil, nil, nil, false
	}
	svc := &Service{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    duration,
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return svc, nil, nil, true
		}
		http.Error(w, "invalid image upload", http.StatusBadRequest)
		return nil, nil, nil, false
	}
	return svc, file, header, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
