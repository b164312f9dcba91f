// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage is the single point of truth for page and setting
// persistence. Manager implements the Backend interface over the SQLite
// store; the legacy package provides a second Backend over the flat
// key/value file, so consumers pick their primary and fallback backends at
// construction time instead of scattering duplicate-write logic.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fucknotion/fucknotion-go/internal/model"
)

// Sentinel errors. Not-found outcomes are normal results, not failures:
// callers decide whether to create-on-miss.
var (
	ErrPageNotFound    = errors.New("page not found")
	ErrSettingNotFound = errors.New("setting not found")
	// ErrParentCycle rejects a save whose parent chain would make the page
	// its own ancestor.
	ErrParentCycle = errors.New("parent chain forms a cycle")
)

// PageInput carries the caller-supplied fields of a page save. Everything
// derived (textContent, htmlContent, timestamps) is computed by the backend.
type PageInput struct {
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content"`
	ParentSlug      string          `json:"parentSlug,omitempty"`
	IsSubPage       bool            `json:"isSubPage,omitempty"`
	HideFromSidebar bool            `json:"hideFromSidebar,omitempty"`
}

// Info reports collection size and, where the host exposes it, storage
// quota and usage. Quota fields are omitted when unavailable.
type Info struct {
	PageCount   int64    `json:"pageCount"`
	Quota       *uint64  `json:"quota,omitempty"`
	Usage       *uint64  `json:"usage,omitempty"`
	PercentUsed *float64 `json:"percentUsed,omitempty"`
}

// Backend is the storage surface consumed by the page directory and the
// presentation collaborators.
type Backend interface {
	SavePage(ctx context.Context, slug string, in PageInput) (int64, error)
	GetPage(ctx context.Context, slug string) (model.Page, error)
	GetAllPages(ctx context.Context) ([]model.Page, error)
	DeletePage(ctx context.Context, slug string) error
	SearchPages(ctx context.Context, query string) ([]model.Page, error)
	SaveSetting(ctx context.Context, key string, value json.RawMessage) error
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
}
