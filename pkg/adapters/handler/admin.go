package handler

import (
	"net/http"

	"github.com/linkshala/linkshala-api/pkg/core/domain"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/linkshala/linkshala-api/pkg/validation"
)

// AdminHandler serves batch curation and the dashboard.
type AdminHandler struct {
	links    ports.LinkService
	bulk     ports.BulkService
	stats    ports.StatsService
	validate *validation.Validator
}

func NewAdminHandler(links ports.LinkService, bulk ports.BulkService, stats ports.StatsService, v *validation.Validator) *AdminHandler {
	return &AdminHandler{links: links, bulk: bulk, stats: stats, validate: v}
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type BulkCreateRequest struct {
	Links []domain.LinkInput `json:"links" validate:"required,min=1"`
}

type MoveCategoryRequest struct {
	LinkIDs        []string `json:"linkIds" validate:"required,min=1"`
	TargetCategory string   `json:"targetCategory" validate:"required"`
}

func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := h.links.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deletedCount": removed})
}

func (h *AdminHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req BulkCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.bulk.BulkCreate(r.Context(), req.Links)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AdminHandler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	var req MoveCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}

	moved, err := h.links.MoveCategory(r.Context(), req.LinkIDs, req.TargetCategory)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modifiedCount": moved})
}

func (h *AdminHandler) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	report, err := h.bulk.RemoveDuplicates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CategoryStats is the public per-category count of active links.
func (h *AdminHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.stats.CategoryCounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
