// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST surface the editor talks to: pages,
// settings, search, storage diagnostics and data transfer.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fucknotion/fucknotion-go/internal/directory"
	"github.com/fucknotion/fucknotion-go/internal/logging"
	"github.com/fucknotion/fucknotion-go/internal/migration"
	"github.com/fucknotion/fucknotion-go/internal/storage"
	"github.com/fucknotion/fucknotion-go/internal/transfer"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	dir      *directory.Directory
	manager  *storage.Manager
	engine   *migration.Engine
	exporter *transfer.Exporter
	importer *transfer.Importer
	events   *logging.EventBufferHandler
	debounce *directory.Debouncer
	logger   *slog.Logger
	version  string
}

// Options carries the handler dependencies.
type Options struct {
	Directory  *directory.Directory
	Manager    *storage.Manager
	Engine     *migration.Engine
	Exporter   *transfer.Exporter
	Importer   *transfer.Importer
	Events     *logging.EventBufferHandler
	Debounce   *directory.Debouncer
	Logger     *slog.Logger
	AppVersion string
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	return &Handler{
		dir:      opts.Directory,
		manager:  opts.Manager,
		engine:   opts.Engine,
		exporter: opts.Exporter,
		importer: opts.Importer,
		events:   opts.Events,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		version:  opts.AppVersion,
	}
}

// Routes mounts all API routes on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Get("/storage", h.StorageInfo)

	r.Get("/pages", h.ListPages)
	r.Post("/pages", h.CreatePage)
	r.Get("/pages/{slug}", h.GetPage)
	r.Put("/pages/{slug}", h.UpdatePage)
	r.Patch("/pages/{slug}/content", h.PatchContent)
	r.Delete("/pages/{slug}", h.DeletePage)
	r.Get("/pages/{slug}/versions", h.ListVersions)
	r.Get("/pages/{slug}/attachments", h.ListAttachments)
	r.Post("/pages/{slug}/attachments", h.CreateAttachment)

	r.Get("/search", h.Search)

	r.Get("/settings/{key}", h.GetSetting)
	r.Put("/settings/{key}", h.PutSetting)

	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Post("/migration/restore", h.RestoreBackup)
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains collection metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message, Details: details},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// StatusResponse describes the storage subsystem state.
type StatusResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Directory string          `json:"directory"`
	Pages     int             `json:"pages"`
	LastError string          `json:"last_error,omitempty"`
	Events    []logging.Event `json:"events,omitempty"`
	Time      time.Time       `json:"time"`
}

// Status handles GET /api/v1/status. Degraded storage is still a 200; the
// state field tells the UI what to render.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Status:    "ok",
		Version:   h.version,
		Directory: h.dir.State().String(),
		Pages:     h.dir.Len(),
		Time:      time.Now().UTC(),
	}
	if err := h.dir.Err(); err != nil {
		resp.LastError = err.Error()
	}
	if h.events != nil {
		resp.Events = h.events.Events()
	}
	WriteSuccess(w, resp, nil)
}

// StorageInfo handles GET /api/v1/storage.
func (h *Handler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.manager.StorageInfo(r.Context())
	if err != nil {
		h.logger.Error("storage info failed", "error", err)
		WriteInternalError(w, "Failed to read storage info")
		return
	}
	WriteSuccess(w, info, nil)
}
