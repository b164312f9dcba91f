// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fucknotion/fucknotion-go/internal/model"
	"github.com/fucknotion/fucknotion-go/internal/storage"
	"github.com/fucknotion/fucknotion-go/internal/util"
)

// CreatePageRequest represents the request body for creating a page.
// The slug is derived from the title; a duplicate gets a numeric suffix.
type CreatePageRequest struct {
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content,omitempty"`
	ParentSlug      string          `json:"parentSlug,omitempty"`
	IsSubPage       bool            `json:"isSubPage"`
	HideFromSidebar bool            `json:"hideFromSidebar"`
}

// UpdatePageRequest represents the request body for updating a page.
type UpdatePageRequest struct {
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content,omitempty"`
	ParentSlug      string          `json:"parentSlug,omitempty"`
	IsSubPage       bool            `json:"isSubPage"`
	HideFromSidebar bool            `json:"hideFromSidebar"`
}

// ListPages handles GET /api/v1/pages, most recently updated first.
func (h *Handler) ListPages(w http.ResponseWriter, _ *http.Request) {
	pages := make([]model.Page, 0, h.dir.Len())
	for _, p := range h.dir.Pages() {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].UpdatedAt.After(pages[j].UpdatedAt)
	})
	WriteSuccess(w, pages, &Meta{Total: len(pages)})
}

// GetPage handles GET /api/v1/pages/{slug}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	page, err := h.dir.LoadPage(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
		} else {
			h.logger.Error("loading page failed", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to retrieve page")
		}
		return
	}
	WriteSuccess(w, page, nil)
}

// CreatePage handles POST /api/v1/pages.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		req.Title = model.DefaultTitle
	}

	slug := util.PageSlug(req.Title)
	// A title collision gets a numeric suffix rather than a rejection,
	// the way creating "Untitled" twice should just work.
	base := slug
	for n := 2; ; n++ {
		_, err := h.dir.LoadPage(ctx, slug)
		if errors.Is(err, storage.ErrPageNotFound) {
			break
		}
		if err != nil {
			h.logger.Error("checking slug failed", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to check slug")
			return
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}

	if err := h.savePage(w, slug, storage.PageInput{
		Title:           req.Title,
		Content:         req.Content,
		ParentSlug:      req.ParentSlug,
		IsSubPage:       req.IsSubPage,
		HideFromSidebar: req.HideFromSidebar,
	}, r); err != nil {
		return
	}

	page, err := h.dir.LoadPage(ctx, slug)
	if err != nil {
		h.logger.Error("loading created page failed", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load created page")
		return
	}
	WriteCreated(w, page)
}

// UpdatePage handles PUT /api/v1/pages/{slug}. Creates the page when the
// slug does not exist yet, so the editor can save without a prior create.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		// Slugs imported from the legacy index may predate the minting
		// rules; a page that already exists stays writable under its
		// original slug. Only a brand-new slug must be well-formed.
		if _, err := h.dir.LoadPage(r.Context(), slug); err != nil {
			WriteValidationError(w, map[string]string{"slug": "Invalid slug format"})
			return
		}
	}

	var req UpdatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		req.Title = model.DefaultTitle
	}

	if err := h.savePage(w, slug, storage.PageInput{
		Title:           req.Title,
		Content:         req.Content,
		ParentSlug:      req.ParentSlug,
		IsSubPage:       req.IsSubPage,
		HideFromSidebar: req.HideFromSidebar,
	}, r); err != nil {
		return
	}

	page, err := h.dir.LoadPage(r.Context(), slug)
	if err != nil {
		h.logger.Error("loading saved page failed", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load saved page")
		return
	}
	WriteSuccess(w, page, nil)
}

// PatchContent handles PATCH /api/v1/pages/{slug}/content. The write is
// debounced so a typing editor coalesces into one save; the response is
// 202 because the write has not landed yet.
func (h *Handler) PatchContent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.dir.LoadPage(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
		} else {
			WriteInternalError(w, "Failed to retrieve page")
		}
		return
	}

	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	in := storage.PageInput{
		Title:           page.Title,
		Content:         req.Content,
		ParentSlug:      page.ParentSlug,
		IsSubPage:       page.IsSubPage,
		HideFromSidebar: page.HideFromSidebar,
	}
	// The request is long gone when the timer fires.
	h.debounce.Schedule(slug, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.dir.SavePage(ctx, slug, in); err != nil {
			h.logger.Error("debounced save failed", "slug", slug, "error", err)
		}
	})
	w.WriteHeader(http.StatusAccepted)
}

// DeletePage handles DELETE /api/v1/pages/{slug}. Direct children go with
// the page; an unknown slug still returns 204.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	h.debounce.Cancel(slug)
	if err := h.dir.DeletePage(r.Context(), slug); err != nil {
		h.logger.Error("deleting page failed", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/v1/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		WriteBadRequest(w, "Query parameter q is required", nil)
		return
	}
	results, err := h.dir.SearchPages(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		WriteInternalError(w, "Search failed")
		return
	}
	if results == nil {
		results = []model.Page{}
	}
	WriteSuccess(w, results, &Meta{Total: len(results)})
}

// ListVersions handles GET /api/v1/pages/{slug}/versions.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	versions, err := h.manager.PageVersions(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
		} else {
			h.logger.Error("listing versions failed", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to list versions")
		}
		return
	}
	WriteSuccess(w, versions, &Meta{Total: len(versions)})
}

// savePage writes through the directory, translating domain errors into
// API responses. Returns a non-nil error when a response was written.
func (h *Handler) savePage(w http.ResponseWriter, slug string, in storage.PageInput, r *http.Request) error {
	err := h.dir.SavePage(r.Context(), slug, in)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrParentCycle) {
		WriteConflict(w, "Parent chain would form a cycle")
		return err
	}
	h.logger.Error("saving page failed", "slug", slug, "error", err)
	WriteInternalError(w, "Failed to save page")
	return err
}
