// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// CreateAttachmentRequest represents the request body for recording an
// attachment. The file bytes live elsewhere; this stores the metadata.
type CreateAttachmentRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	URL      string `json:"url"`
}

// ListAttachments handles GET /api/v1/pages/{slug}/attachments.
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	attachments, err := h.manager.ListAttachments(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
		} else {
			h.logger.Error("listing attachments failed", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to list attachments")
		}
		return
	}
	WriteSuccess(w, attachments, &Meta{Total: len(attachments)})
}

// CreateAttachment handles POST /api/v1/pages/{slug}/attachments.
func (h *Handler) CreateAttachment(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req CreateAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.FileName == "" {
		WriteValidationError(w, map[string]string{"fileName": "File name is required"})
		return
	}

	attachment, err := h.manager.RecordAttachment(r.Context(), slug, req.FileName, req.FileType, req.FileSize, req.URL)
	if err != nil {
		if errors.Is(err, storage.ErrPageNotFound) {
			WriteNotFound(w, "Page not found")
		} else {
			h.logger.Error("recording attachment failed", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to record attachment")
		}
		return
	}
	WriteCreated(w, attachment)
}
