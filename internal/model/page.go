// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the persisted entities of the page store.
package model

import (
	"encoding/json"
	"time"
)

// DefaultTitle is assigned to pages created without an explicit title.
const DefaultTitle = "Untitled"

// Page is the central entity: one editable document addressed by its slug.
// Content is the rich-text document tree and is opaque to the storage core;
// TextContent and HTMLContent are derived projections recomputed on every
// save and never independently authored.
type Page struct {
	ID              int64           `json:"id,omitempty"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content"`
	TextContent     string          `json:"textContent,omitempty"`
	HTMLContent     string          `json:"htmlContent,omitempty"`
	ParentSlug      string          `json:"parentSlug,omitempty"`
	IsSubPage       bool            `json:"isSubPage,omitempty"`
	HideFromSidebar bool            `json:"hideFromSidebar,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// IsTopLevel returns true if the page has no parent.
func (p *Page) IsTopLevel() bool {
	return p.ParentSlug == ""
}

// PageVersion is a historical content snapshot, recorded when an existing
// page is saved with changed content.
type PageVersion struct {
	ID            int64           `json:"id,omitempty"`
	PageID        int64           `json:"pageId"`
	Content       json.RawMessage `json:"content"`
	VersionNumber int64           `json:"versionNumber"`
	CreatedAt     time.Time       `json:"createdAt"`
}
