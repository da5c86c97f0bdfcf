package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopme-store/shopme-backend/internal/domain"
)

const maxUploadSize = 32 << 20

// Handler serves one catalog collection. label appears in
// user-facing messages ("Product not found" vs "TopProduct not
// found").
type Handler struct {
	repo     *Repository
	uploader Uploader
	label    string
	logger   *slog.Logger
}

func NewHandler(repo *Repository, uploader Uploader, label string, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		uploader: uploader,
		label:    label,
		logger:   logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list catalog", "error", err, "label", h.label)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get catalog item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, h.label+" not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	product, errMsg := h.parseForm(r, nil)
	if errMsg != "" {
		h.writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	if product.Img == "" {
		h.writeError(w, http.StatusBadRequest, "image file or img field is required")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), product.ID)
	if err != nil {
		h.logger.Error("failed to check catalog item", "error", err, "id", product.ID)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing != nil {
		h.writeError(w, http.StatusBadRequest, h.label+" with this id already exists")
		return
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("failed to create catalog item", "error", err, "id", product.ID)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("catalog item created", "label", h.label, "id", product.ID)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get catalog item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing == nil {
		h.writeError(w, http.StatusNotFound, h.label+" not found")
		return
	}

	product, errMsg := h.parseForm(r, existing)
	if errMsg != "" {
		h.writeError(w, http.StatusBadRequest, errMsg)
		return
	}
	product.ID = id

	updated, err := h.repo.Update(r.Context(), product)
	if err != nil {
		h.logger.Error("failed to update catalog item", "error", err, "id", id)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, h.label+" not found")
		return
	}

	h.logger.Info("catalog item updated", "label", h.label, "id", id)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete catalog item", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, h.label+" not found")
		return
	}

	h.logger.Info("catalog item deleted", "label", h.label, "id", id)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": h.label + " deleted"})
}

// parseForm coerces the multipart fields into a Product. When
// existing is non-nil its values back any field the form omits; a
// freshly uploaded image always wins over the stored reference and a
// client-supplied img override.
func (h *Handler) parseForm(r *http.Request, existing *domain.Product) (*domain.Product, string) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "invalid multipart form"
	}

	product := &domain.Product{}
	if existing != nil {
		*product = *existing
	}

	if v := r.FormValue("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, "invalid id"
		}
		product.ID = id
	}
	if v := r.FormValue("title"); v != "" {
		product.Title = v
	}
	if v := r.FormValue("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, "invalid rating"
		}
		product.Rating = rating
	}
	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, "invalid price"
		}
		product.Price = price
	}
	if v := r.FormValue("description"); v != "" {
		product.Description = v
	}
	if v := r.FormValue("aosDelay"); v != "" {
		product.AosDelay = v
	}

	if existing == nil && (product.ID == 0 || product.Title == "") {
		return nil, "id and title are required"
	}

	if v := r.FormValue("img"); v != "" {
		product.Img = v
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer func() { _ = file.Close() }()

		url, err := h.uploader.Upload(r.Context(), header.Filename, file)
		if err != nil {
			h.logger.Error("failed to store image", "error", err)
			return nil, "image upload failed"
		}
		product.Img = url
	} else if err != http.ErrMissingFile {
		return nil, "invalid image upload"
	}

	return product, ""
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
