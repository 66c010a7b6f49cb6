package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/linkshala/linkshala-api/pkg/validation"
)

type CategoryHandler struct {
	service  ports.CategoryService
	validate *validation.Validator
}

func NewCategoryHandler(service ports.CategoryService, v *validation.Validator) *CategoryHandler {
	return &CategoryHandler{service: service, validate: v}
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// ListPublic lists active categories only.
func (h *CategoryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	categories, err := h.service.ListCategories(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.CategoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "id")
	if err := h.service.DeleteCategory(r.Context(), categoryID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": categoryID})
}
