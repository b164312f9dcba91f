// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package legacy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fucknotion/fucknotion-go/internal/content"
	"github.com/fucknotion/fucknotion-go/internal/model"
	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// settingKeys maps setting keys onto the fixed legacy keys they were stored
// under before migration. Settings outside this map get a namespaced key so
// the fallback path can still hold them.
var settingKeys = map[string]string{
	model.SettingAPIConfig:         KeyAPIConfig,
	model.SettingBackgroundImage:   KeyBackgroundImage,
	model.SettingBackgroundOpacity: KeyBackgroundOpacity,
	model.SettingCollapsedPages:    KeyCollapsedPages,
}

func legacySettingKey(key string) string {
	if k, ok := settingKeys[key]; ok {
		return k
	}
	return "novel-setting-" + key
}

// Backend adapts the flat store to the storage.Backend interface, making
// the legacy scheme a pluggable fallback rather than an ad hoc second write
// path.
type Backend struct {
	store *Store
}

// NewBackend wraps a flat store.
func NewBackend(store *Store) *Backend {
	return &Backend{store: store}
}

// toPage converts one index entry to the common page model. The legacy
// scheme never stored derived fields, so they are recomputed here.
func toPage(slug string, rec PageRecord) model.Page {
	doc := rec.Content
	if len(doc) == 0 {
		doc = content.EmptyDoc()
	}
	text, _ := content.ExtractText(doc)
	p := model.Page{
		Slug:            slug,
		Title:           rec.Title,
		Content:         doc,
		TextContent:     text,
		ParentSlug:      rec.ParentSlug,
		IsSubPage:       rec.IsSubPage,
		HideFromSidebar: rec.HideFromSidebar,
	}
	if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

// SavePage upserts an entry in the page index blob, preserving the original
// createdAt of an existing entry. The legacy scheme has no numeric
// identifiers, so the returned id is always zero.
func (b *Backend) SavePage(_ context.Context, slug string, in storage.PageInput) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := b.store.UpdatePages(func(pages map[string]PageRecord) {
		createdAt := now
		if existing, ok := pages[slug]; ok && existing.CreatedAt != "" {
			createdAt = existing.CreatedAt
		}
		doc := in.Content
		if len(doc) == 0 {
			doc = content.EmptyDoc()
		}
		pages[slug] = PageRecord{
			Title:           in.Title,
			Content:         doc,
			ParentSlug:      in.ParentSlug,
			IsSubPage:       in.IsSubPage,
			HideFromSidebar: in.HideFromSidebar,
			CreatedAt:       createdAt,
			UpdatedAt:       now,
		}
	})
	return 0, err
}

// GetPage looks up one entry of the page index blob.
func (b *Backend) GetPage(_ context.Context, slug string) (model.Page, error) {
	pages, err := b.store.Pages()
	if err != nil {
		return model.Page{}, err
	}
	rec, ok := pages[slug]
	if !ok {
		return model.Page{}, storage.ErrPageNotFound
	}
	return toPage(slug, rec), nil
}

// GetAllPages returns every entry of the page index blob.
func (b *Backend) GetAllPages(_ context.Context) ([]model.Page, error) {
	pages, err := b.store.Pages()
	if err != nil {
		return nil, err
	}
	out := make([]model.Page, 0, len(pages))
	for slug, rec := range pages {
		out = append(out, toPage(slug, rec))
	}
	return out, nil
}

// DeletePage removes the entry and its direct children. An unknown slug is
// a silent no-op, matching the primary backend.
func (b *Backend) DeletePage(_ context.Context, slug string) error {
	return b.store.UpdatePages(func(pages map[string]PageRecord) {
		if _, ok := pages[slug]; !ok {
			return
		}
		for child, rec := range pages {
			if rec.ParentSlug == slug {
				delete(pages, child)
			}
		}
		delete(pages, slug)
	})
}

// SearchPages filters the index in memory with the shared matching rule,
// so primary and fallback agree on any given query.
func (b *Backend) SearchPages(ctx context.Context, query string) ([]model.Page, error) {
	all, err := b.GetAllPages(ctx)
	if err != nil {
		return nil, err
	}
	return storage.FilterPages(all, query), nil
}

// SaveSetting stores the payload under the corresponding legacy key.
func (b *Backend) SaveSetting(_ context.Context, key string, value json.RawMessage) error {
	return b.store.Set(legacySettingKey(key), string(value))
}

// GetSetting reads the payload stored under the corresponding legacy key.
func (b *Backend) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	raw, ok, err := b.store.Get(legacySettingKey(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrSettingNotFound
	}
	return json.RawMessage(raw), nil
}

// Ensure Backend implements storage.Backend.
var _ storage.Backend = (*Backend)(nil)
