package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jaylondental/clinic-api/internal/storage"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

const maxImageBytes = 10 << 20

type repository interface {
	List(ctx context.Context) ([]Image, error)
	Create(ctx context.Context, img *Image) error
	Delete(ctx context.Context, id uuid.UUID) (string, error)
}

// Handler handles HTTP requests for the gallery.
type Handler struct {
	repo    repository
	objects storage.ObjectStore
	logger  *logging.Logger
}

// NewHandler creates a gallery handler.
func NewHandler(repo repository, objects storage.ObjectStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, objects: objects, logger: logger}
}

type imageResponse struct {
	Image
	URL string `json:"url"`
}

// List handles GET /gallery.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list gallery", "error", err)
		http.Error(w, "failed to list gallery", http.StatusInternalServerError)
		return
	}
	out := make([]imageResponse, 0, len(list))
	for _, img := range list {
		out = append(out, imageResponse{Image: img, URL: h.objects.URL(img.ObjectKey)})
	}
	writeJSON(w, http.StatusOK, out)
}

// Upload handles POST /admin/gallery (multipart field "image").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img := &Image{ID: uuid.New()}
	img.ObjectKey = "gallery/" + img.ID.String() + path.Ext(header.Filename)
	if err := h.objects.Put(r.Context(), img.ObjectKey, header.Header.Get("Content-Type"), file); err != nil {
		h.logger.Error("failed to store gallery image", "error", err)
		http.Error(w, "failed to store image", http.StatusInternalServerError)
		return
	}
	if err := h.repo.Create(r.Context(), img); err != nil {
		h.logger.Error("failed to record gallery image", "error", err)
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	h.logger.Info("gallery image uploaded", "id", img.ID, "key", img.ObjectKey)
	writeJSON(w, http.StatusCreated, imageResponse{Image: *img, URL: h.objects.URL(img.ObjectKey)})
}

// Delete handles DELETE /admin/gallery/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid image id", http.StatusBadRequest)
		return
	}
	objectKey, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete gallery image", "error", err, "id", id)
		http.Error(w, "failed to delete image", http.StatusInternalServerError)
		return
	}
	if err := h.objects.Delete(r.Context(), objectKey); err != nil {
		h.logger.Warn("failed to delete gallery object", "error", err, "key", objectKey)
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
