// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fucknotion/fucknotion-go/internal/store"
)

// Exporter produces full-corpus snapshots straight from the query facade.
type Exporter struct {
	queries *store.Queries
}

// NewExporter creates an exporter over the page database.
func NewExporter(queries *store.Queries) *Exporter {
	return &Exporter{queries: queries}
}

// Export snapshots every page and setting.
func (e *Exporter) Export(ctx context.Context) (*ExportData, error) {
	pages, err := e.queries.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting pages: %w", err)
	}
	settings, err := e.queries.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting settings: %w", err)
	}

	data := &ExportData{
		Version:    ExportVersion,
		ExportDate: time.Now().UTC(),
		Pages:      make([]ExportPage, 0, len(pages)),
		Settings:   make(map[string]json.RawMessage, len(settings)),
	}
	for _, p := range pages {
		data.Pages = append(data.Pages, ExportPage{
			Slug:            p.Slug,
			Title:           p.Title,
			Content:         p.Content,
			TextContent:     p.TextContent,
			HTMLContent:     p.HTMLContent,
			ParentSlug:      p.ParentSlug,
			IsSubPage:       p.IsSubPage,
			HideFromSidebar: p.HideFromSidebar,
			Tags:            p.Tags,
			CreatedAt:       p.CreatedAt,
			UpdatedAt:       p.UpdatedAt,
		})
	}
	for _, s := range settings {
		data.Settings[s.Key] = s.Value
	}
	return data, nil
}
