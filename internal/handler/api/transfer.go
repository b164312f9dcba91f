// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fucknotion/fucknotion-go/internal/transfer"
)

// maxImportBytes bounds an import payload.
const maxImportBytes = 64 << 20

// Export handles GET /api/v1/export. The snapshot is served as a download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.Export(r.Context())
	if err != nil {
		h.logger.Error("export failed", "error", err)
		WriteInternalError(w, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="fucknotion-export-`+time.Now().Format("2006-01-02")+`.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// Import handles POST /api/v1/import. Per-item failures are collected in
// the result rather than aborting the whole import; success=false with a
// non-empty error list means a partial import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var data transfer.ExportData
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err := dec.Decode(&data); err != nil {
		WriteBadRequest(w, "Invalid import file", nil)
		return
	}

	result, err := h.importer.Import(r.Context(), &data)
	if err != nil {
		WriteBadRequest(w, err.Error(), nil)
		return
	}

	// Pull the imported pages into the in-memory map.
	if err := h.dir.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after import failed", "error", err)
	}
	WriteSuccess(w, result, nil)
}

// RestoreBackup handles POST /api/v1/migration/restore. Reinstates the
// legacy keys from the backup blob and clears the migration marker so the
// next startup migrates again.
func (h *Handler) RestoreBackup(w http.ResponseWriter, _ *http.Request) {
	restored, err := h.engine.RestoreFromBackup()
	if err != nil {
		h.logger.Error("restore from backup failed", "error", err)
		WriteInternalError(w, "Restore failed")
		return
	}
	if !restored {
		WriteNotFound(w, "No backup found")
		return
	}
	WriteSuccess(w, map[string]bool{"restored": true}, nil)
}
