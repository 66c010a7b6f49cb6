package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/linkshala/linkshala-api/pkg/core/domain"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/linkshala/linkshala-api/pkg/ports"
	"github.com/samber/lo"
)

type LinkHandler struct {
	service    ports.LinkService
	categories ports.CategoryService
}

func NewLinkHandler(service ports.LinkService, categories ports.CategoryService) *LinkHandler {
	return &LinkHandler{service: service, categories: categories}
}

// parseFilter reads paging and filter query parameters shared by the
// public and admin listings.
func parseFilter(r *http.Request) (domain.LinkFilter, error) {
	q := r.URL.Query()
	filter := domain.LinkFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	var err error
	if filter.Featured, err = parseOptionalBool(q.Get("featured"), "featured"); err != nil {
		return filter, err
	}
	if filter.Active, err = parseOptionalBool(q.Get("active"), "active"); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseOptionalBool(raw, name string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validationf("%s must be true or false", name)
	}
	return &v, nil
}

// List is the public listing: active links only.
func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active := true
	filter.Active = &active

	page, err := h.service.ListLinks(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.resolveCategories(r.Context(), page.Links); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Visit returns one link and counts the click.
func (h *LinkHandler) Visit(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Visit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	links := []domain.Link{*link}
	if err := h.resolveCategories(r.Context(), links); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links[0])
}

func (h *LinkHandler) Share(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.IncrementShare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"shareCount": count})
}

// resolveCategories shows links filed under a slug with no category record
// as uncategorized.
func (h *LinkHandler) resolveCategories(ctx context.Context, links []domain.Link) error {
	slugs := lo.Uniq(lo.Map(links, func(l domain.Link, _ int) string { return l.Category }))

	resolved := make(map[string]string, len(slugs))
	for _, slug := range slugs {
		category, err := h.categories.Resolve(ctx, slug)
		if err != nil {
			return err
		}
		resolved[slug] = category.Slug
	}
	for i := range links {
		links[i].Category = resolved[links[i].Category]
	}
	return nil
}

// AdminList includes inactive links unless the active parameter is given.
func (h *LinkHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.service.ListLinks(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.LinkInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.service.CreateLink(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.LinkPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.service.UpdateLink(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "id")
	if err := h.service.DeleteLink(r.Context(), linkID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": linkID})
}
