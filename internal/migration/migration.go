// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package migration performs the one-time transfer of the legacy flat
// store into the page database, plus backup and restore of the legacy
// keys. The transfer is best-effort: individual item failures are
// collected, not fatal, and the completion marker is set regardless so the
// migration runs at most once per profile.
package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/fucknotion/fucknotion-go/internal/content"
	"github.com/fucknotion/fucknotion-go/internal/legacy"
	"github.com/fucknotion/fucknotion-go/internal/model"
	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// CurrentDocumentSlug is the fixed slug the legacy single-slot "current
// document" is migrated to.
const CurrentDocumentSlug = "index"

// currentDocumentTitle names the migrated current-document page.
const currentDocumentTitle = "Home"

// Result reports the outcome of one migration run.
type Result struct {
	Success       bool     `json:"success"`
	MigratedPages int      `json:"migratedPages"`
	Errors        []string `json:"errors"`
}

// Engine transfers legacy data into the page store.
type Engine struct {
	legacy  *legacy.Store
	backend storage.Backend
	logger  *slog.Logger
}

// NewEngine creates a migration engine reading from the flat store and
// writing through the given backend.
func NewEngine(legacyStore *legacy.Store, backend storage.Backend, logger *slog.Logger) *Engine {
	return &Engine{legacy: legacyStore, backend: backend, logger: logger}
}

// NeedsMigration reports whether legacy data exists and has not been
// migrated yet. Cheap and side-effect-free; safe to call on every start.
func (e *Engine) NeedsMigration() bool {
	migrated, _, _ := e.legacy.Get(legacy.KeyMigrated)
	if migrated == "true" {
		return false
	}
	return e.legacy.Has(legacy.KeyPages) || e.legacy.Has(legacy.KeyContent)
}

// Migrate transfers every legacy record into the page store. Per-item
// failures are appended to the error list and do not abort the remaining
// steps. The completion marker is set unconditionally at the end, so
// partial failures are not retried automatically.
func (e *Engine) Migrate(ctx context.Context) Result {
	var res Result

	e.logger.Info("starting migration from legacy store")

	e.migratePages(ctx, &res)
	e.migrateCurrentDocument(ctx, &res)
	e.migrateAPIConfig(ctx, &res)
	e.migrateBackground(ctx, &res)
	e.migrateCollapsedState(ctx, &res)

	if err := e.legacy.Set(legacy.KeyMigrated, "true"); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("setting completion marker: %v", err))
	}

	res.Success = len(res.Errors) == 0
	e.logger.Info("migration completed",
		"migrated_pages", res.MigratedPages, "errors", len(res.Errors))
	return res
}

// migratePages transfers every entry of the legacy page index.
func (e *Engine) migratePages(ctx context.Context, res *Result) {
	if !e.legacy.Has(legacy.KeyPages) {
		return
	}
	pages, err := e.legacy.Pages()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("parsing legacy page index: %v", err))
		return
	}

	slugs := make([]string, 0, len(pages))
	for slug := range pages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		rec := pages[slug]
		title := rec.Title
		if title == "" {
			title = model.DefaultTitle
		}
		doc := rec.Content
		if len(doc) == 0 {
			doc = content.EmptyDoc()
		}
		_, err := e.backend.SavePage(ctx, slug, storage.PageInput{
			Title:           title,
			Content:         doc,
			ParentSlug:      rec.ParentSlug,
			IsSubPage:       rec.IsSubPage,
			HideFromSidebar: rec.HideFromSidebar,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("migrating page %q: %v", slug, err))
			e.logger.Warn("failed to migrate page", "slug", slug, "error", err)
			continue
		}
		res.MigratedPages++
	}
}

// migrateCurrentDocument maps the legacy single-slot editor content to the
// fixed well-known slug.
func (e *Engine) migrateCurrentDocument(ctx context.Context, res *Result) {
	raw, ok, err := e.legacy.Get(legacy.KeyContent)
	if err != nil || !ok {
		return
	}
	if !json.Valid([]byte(raw)) {
		res.Errors = append(res.Errors, "migrating current document: invalid JSON")
		return
	}
	_, err = e.backend.SavePage(ctx, CurrentDocumentSlug, storage.PageInput{
		Title:   currentDocumentTitle,
		Content: json.RawMessage(raw),
	})
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("migrating current document: %v", err))
		return
	}
	res.MigratedPages++
}

// migrateAPIConfig transfers the legacy API configuration setting.
func (e *Engine) migrateAPIConfig(ctx context.Context, res *Result) {
	raw, ok, err := e.legacy.Get(legacy.KeyAPIConfig)
	if err != nil || !ok {
		return
	}
	if !json.Valid([]byte(raw)) {
		res.Errors = append(res.Errors, "migrating api config: invalid JSON")
		return
	}
	if err := e.backend.SaveSetting(ctx, model.SettingAPIConfig, json.RawMessage(raw)); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("migrating api config: %v", err))
	}
}

// migrateBackground transfers the background image data-URL and numeric
// opacity settings.
func (e *Engine) migrateBackground(ctx context.Context, res *Result) {
	if raw, ok, err := e.legacy.Get(legacy.KeyBackgroundImage); err == nil && ok {
		value, _ := json.Marshal(raw)
		if err := e.backend.SaveSetting(ctx, model.SettingBackgroundImage, value); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("migrating background image: %v", err))
		}
	}
	if raw, ok, err := e.legacy.Get(legacy.KeyBackgroundOpacity); err == nil && ok {
		opacity, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("migrating background opacity: %v", err))
			return
		}
		value, _ := json.Marshal(opacity)
		if err := e.backend.SaveSetting(ctx, model.SettingBackgroundOpacity, value); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("migrating background opacity: %v", err))
		}
	}
}

// migrateCollapsedState transfers the sidebar collapse list.
func (e *Engine) migrateCollapsedState(ctx context.Context, res *Result) {
	raw, ok, err := e.legacy.Get(legacy.KeyCollapsedPages)
	if err != nil || !ok {
		return
	}
	if !json.Valid([]byte(raw)) {
		res.Errors = append(res.Errors, "migrating collapsed pages: invalid JSON")
		return
	}
	if err := e.backend.SaveSetting(ctx, model.SettingCollapsedPages, json.RawMessage(raw)); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("migrating collapsed pages: %v", err))
	}
}

// backupKeys are snapshotted by CleanupLegacy before removal.
var backupKeys = []string{
	legacy.KeyPages,
	legacy.KeyContent,
	legacy.KeyAPIConfig,
	legacy.KeyBackgroundImage,
	legacy.KeyBackgroundOpacity,
	legacy.KeyCollapsedPages,
}

// removalKeys is the fixed set CleanupLegacy deletes. Anything outside this
// set is left untouched.
var removalKeys = []string{
	legacy.KeyPages,
	legacy.KeyContent,
	legacy.KeyHTMLContent,
	legacy.KeyMarkdown,
	legacy.KeyCollapsedPages,
}

// CleanupLegacy deletes the migrated legacy keys. With keepBackup it first
// snapshots them into a single backup blob with a timestamp, so the
// cleanup can be undone by RestoreFromBackup.
func (e *Engine) CleanupLegacy(keepBackup bool) error {
	if keepBackup {
		backup := map[string]string{}
		for _, key := range backupKeys {
			if v, ok, err := e.legacy.Get(key); err == nil && ok {
				backup[key] = v
			}
		}
		raw, err := json.Marshal(backup)
		if err != nil {
			return fmt.Errorf("encoding legacy backup: %w", err)
		}
		if err := e.legacy.Set(legacy.KeyBackup, string(raw)); err != nil {
			return fmt.Errorf("writing legacy backup: %w", err)
		}
		if err := e.legacy.Set(legacy.KeyBackupDate, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("writing legacy backup date: %w", err)
		}
	}

	for _, key := range removalKeys {
		if err := e.legacy.Remove(key); err != nil {
			return fmt.Errorf("removing legacy key %q: %w", key, err)
		}
	}

	e.logger.Info("legacy store cleaned up", "backup", keepBackup)
	return nil
}

// RestoreFromBackup reinstates the legacy keys from the backup blob and
// clears the completion marker, so the next NeedsMigration check
// re-evaluates. Returns false when no backup exists.
func (e *Engine) RestoreFromBackup() (bool, error) {
	raw, ok, err := e.legacy.Get(legacy.KeyBackup)
	if err != nil {
		return false, err
	}
	if !ok {
		e.logger.Info("no legacy backup found")
		return false, nil
	}

	backup := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &backup); err != nil {
		return false, fmt.Errorf("parsing legacy backup: %w", err)
	}
	for key, value := range backup {
		if err := e.legacy.Set(key, value); err != nil {
			return false, fmt.Errorf("restoring legacy key %q: %w", key, err)
		}
	}
	if err := e.legacy.Remove(legacy.KeyMigrated); err != nil {
		return false, fmt.Errorf("clearing completion marker: %w", err)
	}

	e.logger.Info("legacy backup restored", "keys", len(backup))
	return true, nil
}
