// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package directory keeps an in-memory slug-to-page map synchronized with
// the storage backend for fast hierarchy rendering, degrading to the
// fallback backend when the primary one fails. The presentation layer only
// ever talks to this package, so a storage failure never makes a write
// disappear from the UI.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fucknotion/fucknotion-go/internal/model"
	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// State is the directory lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	// StateReady means the map reflects the primary backend.
	StateReady
	// StateDegraded means the primary backend failed and the map was
	// populated from the fallback backend instead.
	StateDegraded
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Directory is the presentation-facing page aggregate.
type Directory struct {
	primary  storage.Backend
	fallback storage.Backend
	logger   *slog.Logger

	mu      sync.RWMutex
	pages   map[string]model.Page
	state   State
	lastErr error
}

// New creates a directory over a primary and a fallback backend, chosen
// here once instead of per call site.
func New(primary, fallback storage.Backend, logger *slog.Logger) *Directory {
	return &Directory{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		pages:    make(map[string]model.Page),
		state:    StateIdle,
	}
}

// Refresh reloads the whole map from the primary backend, degrading to the
// fallback on failure. The recorded error survives until the next
// successful refresh.
func (d *Directory) Refresh(ctx context.Context) error {
	d.setState(StateLoading)

	pages, err := d.primary.GetAllPages(ctx)
	if err == nil {
		d.replace(pages, StateReady, nil)
		return nil
	}

	d.logger.Error("loading pages from primary storage failed, using fallback", "error", err)
	fbPages, fbErr := d.fallback.GetAllPages(ctx)
	if fbErr != nil {
		d.logger.Error("fallback load failed", "error", fbErr)
		d.replace(nil, StateDegraded, err)
		return fmt.Errorf("loading pages: %w", err)
	}
	d.replace(fbPages, StateDegraded, err)
	return nil
}

// SavePage writes through the primary backend and mirrors the result into
// the map. On primary failure the write goes to the fallback backend
// instead; the original error is only reported when the fallback fails
// too.
func (d *Directory) SavePage(ctx context.Context, slug string, in storage.PageInput) error {
	_, err := d.primary.SavePage(ctx, slug, in)
	if err == nil {
		if page, gerr := d.primary.GetPage(ctx, slug); gerr == nil {
			d.put(page)
		}
		return nil
	}
	if errors.Is(err, storage.ErrParentCycle) {
		// A rejected write is a rejected write, not a storage failure.
		return err
	}

	d.logger.Error("saving page failed, writing to fallback", "slug", slug, "error", err)
	if _, fbErr := d.fallback.SavePage(ctx, slug, in); fbErr != nil {
		d.logger.Error("fallback save failed", "slug", slug, "error", fbErr)
		return fmt.Errorf("saving page %q: %w", slug, err)
	}
	d.recordError(err)
	if page, gerr := d.fallback.GetPage(ctx, slug); gerr == nil {
		d.put(page)
	}
	return nil
}

// LoadPage resolves a page from, in order, the in-memory map, the primary
// backend and the fallback backend. Never a network call.
func (d *Directory) LoadPage(ctx context.Context, slug string) (model.Page, error) {
	d.mu.RLock()
	page, ok := d.pages[slug]
	d.mu.RUnlock()
	if ok {
		return page, nil
	}

	page, err := d.primary.GetPage(ctx, slug)
	if err == nil {
		d.put(page)
		return page, nil
	}
	if !errors.Is(err, storage.ErrPageNotFound) {
		d.logger.Error("loading page from primary storage failed", "slug", slug, "error", err)
		d.recordError(err)
	}

	page, fbErr := d.fallback.GetPage(ctx, slug)
	if fbErr == nil {
		return page, nil
	}
	if errors.Is(fbErr, storage.ErrPageNotFound) {
		return model.Page{}, storage.ErrPageNotFound
	}
	return model.Page{}, fmt.Errorf("loading page %q: %w", slug, fbErr)
}

// DeletePage removes a page through the primary backend, mirrors the
// removal into the map and best-effort deletes the legacy copy so the two
// backends do not drift further apart.
func (d *Directory) DeletePage(ctx context.Context, slug string) error {
	err := d.primary.DeletePage(ctx, slug)
	if err != nil {
		d.logger.Error("deleting page failed, deleting from fallback", "slug", slug, "error", err)
		if fbErr := d.fallback.DeletePage(ctx, slug); fbErr != nil {
			d.logger.Error("fallback delete failed", "slug", slug, "error", fbErr)
			return fmt.Errorf("deleting page %q: %w", slug, err)
		}
		d.recordError(err)
	} else {
		// Keep the legacy copy in sync; failure here is not fatal.
		if fbErr := d.fallback.DeletePage(ctx, slug); fbErr != nil {
			d.logger.Warn("deleting legacy copy failed", "slug", slug, "error", fbErr)
		}
	}

	d.mu.Lock()
	delete(d.pages, slug)
	for child, page := range d.pages {
		if page.ParentSlug == slug {
			delete(d.pages, child)
		}
	}
	d.mu.Unlock()
	return nil
}

// SearchPages queries the primary backend, filtering the in-memory map
// with the same matching rule when the backend fails.
func (d *Directory) SearchPages(ctx context.Context, query string) ([]model.Page, error) {
	results, err := d.primary.SearchPages(ctx, query)
	if err == nil {
		return results, nil
	}
	d.logger.Error("search failed, filtering in-memory pages", "query", query, "error", err)

	d.mu.RLock()
	snapshot := make([]model.Page, 0, len(d.pages))
	for _, page := range d.pages {
		snapshot = append(snapshot, page)
	}
	d.mu.RUnlock()
	return storage.FilterPages(snapshot, query), nil
}

// Pages returns a snapshot of the in-memory map.
func (d *Directory) Pages() map[string]model.Page {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]model.Page, len(d.pages))
	for slug, page := range d.pages {
		out[slug] = page
	}
	return out
}

// Page returns one entry of the in-memory map.
func (d *Directory) Page(slug string) (model.Page, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	page, ok := d.pages[slug]
	return page, ok
}

// Len returns the number of pages in the map.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.pages)
}

// State returns the current lifecycle state.
func (d *Directory) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Err returns the last recorded storage error, nil after a clean refresh.
func (d *Directory) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

func (d *Directory) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Directory) recordError(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.state = StateDegraded
	d.mu.Unlock()
}

func (d *Directory) put(page model.Page) {
	d.mu.Lock()
	d.pages[page.Slug] = page
	d.mu.Unlock()
}

func (d *Directory) replace(pages []model.Page, state State, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages = make(map[string]model.Page, len(pages))
	for _, page := range pages {
		d.pages[page.Slug] = page
	}
	d.state = state
	d.lastErr = err
}
