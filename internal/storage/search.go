// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"sort"
	"strings"

	"github.com/fucknotion/fucknotion-go/internal/model"
)

// FilterPages is the one search rule every backend shares: a literal
// case-insensitive substring match against title or the plain-text
// projection, title matches ranked before content-only matches and the
// most recently updated page first within each group. Matching runs in Go
// rather than SQL so "%" and "_" in a query stay literal and non-ASCII
// titles fold the same way everywhere.
func FilterPages(pages []model.Page, query string) []model.Page {
	q := strings.ToLower(query)
	var results []model.Page
	for _, p := range pages {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.TextContent), q) {
			results = append(results, p)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		ti := strings.Contains(strings.ToLower(results[i].Title), q)
		tj := strings.Contains(strings.ToLower(results[j].Title), q)
		if ti != tj {
			return ti
		}
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results
}
