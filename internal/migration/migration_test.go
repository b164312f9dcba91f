// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package migration

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fucknotion/fucknotion-go/internal/legacy"
	"github.com/fucknotion/fucknotion-go/internal/storage"
	"github.com/fucknotion/fucknotion-go/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *legacy.Store, *storage.Manager, func()) {
	t.Helper()
	db, dbPath, cleanup := testutil.TestDB(t)
	manager := storage.NewManager(db, dbPath, testutil.TestLoggerSilent())
	store := legacy.Open(filepath.Join(t.TempDir(), "legacy.json"))
	engine := NewEngine(store, manager, testutil.TestLoggerSilent())
	return engine, store, manager, cleanup
}

const pageDoc = `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"body"}]}]}`

func seedLegacyPages(t *testing.T, store *legacy.Store, pages map[string]legacy.PageRecord) {
	t.Helper()
	raw, err := json.Marshal(pages)
	require.NoError(t, err)
	require.NoError(t, store.Set(legacy.KeyPages, string(raw)))
}

func TestNeedsMigration(t *testing.T) {
	engine, store, _, cleanup := newTestEngine(t)
	defer cleanup()

	assert.False(t, engine.NeedsMigration(), "empty store needs nothing")

	seedLegacyPages(t, store, map[string]legacy.PageRecord{"a": {Title: "A"}})
	assert.True(t, engine.NeedsMigration())

	require.NoError(t, store.Set(legacy.KeyMigrated, "true"))
	assert.False(t, engine.NeedsMigration(), "marker wins over data presence")
}

func TestNeedsMigrationContentOnly(t *testing.T) {
	engine, store, _, cleanup := newTestEngine(t)
	defer cleanup()

	require.NoError(t, store.Set(legacy.KeyContent, pageDoc))
	assert.True(t, engine.NeedsMigration())
}

func TestMigrateTransfersEverything(t *testing.T) {
	engine, store, manager, cleanup := newTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{
		"notes": {Title: "Notes", Content: json.RawMessage(pageDoc)},
		"todo":  {Title: "Todo", ParentSlug: "notes", IsSubPage: true},
	})
	require.NoError(t, store.Set(legacy.KeyContent, pageDoc))
	require.NoError(t, store.Set(legacy.KeyAPIConfig, `{"model":"gpt"}`))
	require.NoError(t, store.Set(legacy.KeyBackgroundImage, "data:image/png;base64,AAA"))
	require.NoError(t, store.Set(legacy.KeyBackgroundOpacity, "0.4"))
	require.NoError(t, store.Set(legacy.KeyCollapsedPages, `["notes"]`))

	res := engine.Migrate(ctx)

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	// Two index pages plus the current-document slot.
	assert.Equal(t, 3, res.MigratedPages)

	page, err := manager.GetPage(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "Notes", page.Title)
	assert.Equal(t, "body", page.TextContent)

	todo, err := manager.GetPage(ctx, "todo")
	require.NoError(t, err)
	assert.Equal(t, "notes", todo.ParentSlug)
	assert.True(t, todo.IsSubPage)

	home, err := manager.GetPage(ctx, CurrentDocumentSlug)
	require.NoError(t, err)
	assert.Equal(t, "Home", home.Title)

	apiCfg, err := manager.GetSetting(ctx, "api-config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"gpt"}`, string(apiCfg))

	// The raw image string is stored JSON-encoded.
	img, err := manager.GetSetting(ctx, "background-image")
	require.NoError(t, err)
	assert.JSONEq(t, `"data:image/png;base64,AAA"`, string(img))

	opacity, err := manager.GetSetting(ctx, "background-opacity")
	require.NoError(t, err)
	assert.JSONEq(t, `0.4`, string(opacity))

	collapsed, err := manager.GetSetting(ctx, "collapsed-pages")
	require.NoError(t, err)
	assert.JSONEq(t, `["notes"]`, string(collapsed))

	// Marker set, so a second check declines.
	assert.False(t, engine.NeedsMigration())
}

func TestMigratePartialFailure(t *testing.T) {
	engine, store, manager, cleanup := newTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{
		"good-1": {Title: "Good One", Content: json.RawMessage(pageDoc)},
		// Valid JSON that is not a document tree fails derivation.
		"broken": {Title: "Broken", Content: json.RawMessage(`"not a tree"`)},
		"good-2": {Title: "Good Two", Content: json.RawMessage(pageDoc)},
	})

	res := engine.Migrate(ctx)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.MigratedPages, "failures do not abort the rest")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "broken")

	_, err := manager.GetPage(ctx, "good-1")
	assert.NoError(t, err)
	_, err = manager.GetPage(ctx, "good-2")
	assert.NoError(t, err)
	_, err = manager.GetPage(ctx, "broken")
	assert.ErrorIs(t, err, storage.ErrPageNotFound)

	// The marker is set even after a partial failure; the run is one-shot.
	assert.False(t, engine.NeedsMigration())
}

func TestMigrateDefaultsUntitled(t *testing.T) {
	engine, store, manager, cleanup := newTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{"anon": {}})

	res := engine.Migrate(ctx)
	require.True(t, res.Success)

	page, err := manager.GetPage(ctx, "anon")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", page.Title)
	assert.JSONEq(t, `{"type":"doc","content":[]}`, string(page.Content))
}

func TestMigrateInvalidCurrentDocument(t *testing.T) {
	engine, store, _, cleanup := newTestEngine(t)
	defer cleanup()

	require.NoError(t, store.Set(legacy.KeyContent, "{broken"))

	res := engine.Migrate(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.MigratedPages)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "current document")
}

func TestMigrateIdempotent(t *testing.T) {
	engine, store, manager, cleanup := newTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{
		"a": {Title: "A", Content: json.RawMessage(pageDoc)},
	})

	res1 := engine.Migrate(ctx)
	require.True(t, res1.Success)
	res2 := engine.Migrate(ctx)
	require.True(t, res2.Success)

	all, err := manager.GetAllPages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "re-running must not duplicate pages")
}

func TestCleanupLegacyWithBackupAndRestore(t *testing.T) {
	engine, store, _, cleanup := newTestEngine(t)
	defer cleanup()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{"a": {Title: "A"}})
	require.NoError(t, store.Set(legacy.KeyContent, pageDoc))
	require.NoError(t, store.Set(legacy.KeyMarkdown, "# md"))
	require.NoError(t, store.Set(legacy.KeyAPIConfig, `{"k":1}`))

	engine.Migrate(context.Background())
	require.NoError(t, engine.CleanupLegacy(true))

	// Migrated data keys are gone, the backup and marker remain.
	assert.False(t, store.Has(legacy.KeyPages))
	assert.False(t, store.Has(legacy.KeyContent))
	assert.False(t, store.Has(legacy.KeyMarkdown))
	assert.True(t, store.Has(legacy.KeyBackup))
	assert.True(t, store.Has(legacy.KeyBackupDate))
	// The API config key is backed up but not in the removal set.
	assert.True(t, store.Has(legacy.KeyAPIConfig))

	restored, err := engine.RestoreFromBackup()
	require.NoError(t, err)
	assert.True(t, restored)

	assert.True(t, store.Has(legacy.KeyPages))
	assert.True(t, store.Has(legacy.KeyContent))
	assert.False(t, store.Has(legacy.KeyMigrated), "restore clears the marker")
	assert.True(t, engine.NeedsMigration())
}

func TestCleanupLegacyWithoutBackup(t *testing.T) {
	engine, store, _, cleanup := newTestEngine(t)
	defer cleanup()

	seedLegacyPages(t, store, map[string]legacy.PageRecord{"a": {Title: "A"}})
	engine.Migrate(context.Background())
	require.NoError(t, engine.CleanupLegacy(false))

	assert.False(t, store.Has(legacy.KeyPages))
	assert.False(t, store.Has(legacy.KeyBackup))

	restored, err := engine.RestoreFromBackup()
	require.NoError(t, err)
	assert.False(t, restored)
}
