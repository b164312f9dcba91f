// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// Importer restores a snapshot through the storage backend, so derived
// fields are recomputed on the way in.
type Importer struct {
	backend storage.Backend
	logger  *slog.Logger
}

// NewImporter creates an importer writing through the given backend.
func NewImporter(backend storage.Backend, logger *slog.Logger) *Importer {
	return &Importer{backend: backend, logger: logger}
}

// Import applies a snapshot with the same per-item best-effort semantics as
// the legacy migration: each failed page or setting is collected into the
// error list and the rest proceed.
func (i *Importer) Import(ctx context.Context, data *ExportData) (ImportResult, error) {
	var res ImportResult
	if data == nil || data.Pages == nil {
		return res, errors.New("invalid import data: pages array not found")
	}

	// Parents first, so parent references resolve where possible.
	pages := make([]ExportPage, len(data.Pages))
	copy(pages, data.Pages)
	sort.SliceStable(pages, func(a, b int) bool {
		return !pages[a].IsSubPage && pages[b].IsSubPage
	})

	for _, p := range pages {
		if p.Slug == "" {
			res.Errors = append(res.Errors, "importing page: missing slug")
			continue
		}
		_, err := i.backend.SavePage(ctx, p.Slug, storage.PageInput{
			Title:           p.Title,
			Content:         p.Content,
			ParentSlug:      p.ParentSlug,
			IsSubPage:       p.IsSubPage,
			HideFromSidebar: p.HideFromSidebar,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("importing page %q: %v", p.Slug, err))
			i.logger.Warn("failed to import page", "slug", p.Slug, "error", err)
			continue
		}
		res.ImportedPages++
	}

	keys := make([]string, 0, len(data.Settings))
	for key := range data.Settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := i.backend.SaveSetting(ctx, key, data.Settings[key]); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("importing setting %q: %v", key, err))
		}
	}

	res.Success = len(res.Errors) == 0
	i.logger.Info("import completed",
		"imported_pages", res.ImportedPages, "errors", len(res.Errors))
	return res, nil
}
