// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// maxSettingBytes bounds a single setting payload. Background images are
// stored as data URLs, so the cap is generous.
const maxSettingBytes = 8 << 20

// SettingResponse represents a setting in API responses.
type SettingResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// GetSetting handles GET /api/v1/settings/{key}.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.manager.GetSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrSettingNotFound) {
			WriteNotFound(w, "Setting not found")
		} else {
			h.logger.Error("getting setting failed", "key", key, "error", err)
			WriteInternalError(w, "Failed to retrieve setting")
		}
		return
	}
	WriteSuccess(w, SettingResponse{Key: key, Value: value}, nil)
}

// PutSetting handles PUT /api/v1/settings/{key}. The body is the raw JSON
// value; any valid JSON document is accepted.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		WriteBadRequest(w, "Setting key is required", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSettingBytes+1))
	if err != nil {
		WriteBadRequest(w, "Failed to read body", nil)
		return
	}
	if len(body) > maxSettingBytes {
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Setting value too large", nil)
		return
	}
	if !json.Valid(body) {
		WriteBadRequest(w, "Body must be valid JSON", nil)
		return
	}

	if err := h.manager.SaveSetting(r.Context(), key, body); err != nil {
		h.logger.Error("saving setting failed", "key", key, "error", err)
		WriteInternalError(w, "Failed to save setting")
		return
	}
	WriteSuccess(w, SettingResponse{Key: key, Value: body}, nil)
}
