// Package transfer provides full-corpus export and import of the page and
// setting collections, independent of the legacy-migration flow. It backs
// the user-initiated backup/restore surface.
package transfer

import (
	"encoding/json"
	"time"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0.0"

// ExportData is the complete snapshot structure. Page identifiers are
// stripped so an import assigns fresh ones.
type ExportData struct {
	Version    string                     `json:"version"`
	ExportDate time.Time                  `json:"exportDate"`
	Pages      []ExportPage               `json:"pages"`
	Settings   map[string]json.RawMessage `json:"settings"`
}

// ExportPage is a page record without its internal identifier.
type ExportPage struct {
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

// ImportResult reports the outcome of one import run.
type ImportResult struct {
	Success       bool     `json:"success"`
	ImportedPages int      `json:"importedPages"`
	Errors        []string `json:"errors"`
}
