// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fucknotion/fucknotion-go/internal/storage"
	"github.com/fucknotion/fucknotion-go/internal/store"
	"github.com/fucknotion/fucknotion-go/internal/testutil"
)

const testDoc = `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hello"}]}]}`

func newTestPair(t *testing.T) (*Exporter, *Importer, *storage.Manager, func()) {
	t.Helper()
	db, dbPath, cleanup := testutil.TestDB(t)
	manager := storage.NewManager(db, dbPath, testutil.TestLoggerSilent())
	return NewExporter(store.New(db)), NewImporter(manager, testutil.TestLoggerSilent()), manager, cleanup
}

func TestExportEmptyStore(t *testing.T) {
	exporter, _, _, cleanup := newTestPair(t)
	defer cleanup()

	data, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExportVersion, data.Version)
	assert.NotNil(t, data.Pages)
	assert.Empty(t, data.Pages)
	assert.False(t, data.ExportDate.IsZero())
}

func TestExportImportRoundTrip(t *testing.T) {
	exporter, _, manager, cleanup := newTestPair(t)
	defer cleanup()
	ctx := context.Background()

	_, err := manager.SavePage(ctx, "parent", storage.PageInput{Title: "Parent", Content: json.RawMessage(testDoc)})
	require.NoError(t, err)
	_, err = manager.SavePage(ctx, "child", storage.PageInput{Title: "Child", ParentSlug: "parent", IsSubPage: true})
	require.NoError(t, err)
	require.NoError(t, manager.SaveSetting(ctx, "collapsed-pages", json.RawMessage(`["parent"]`)))

	data, err := exporter.Export(ctx)
	require.NoError(t, err)
	require.Len(t, data.Pages, 2)
	require.Len(t, data.Settings, 1)

	// The snapshot survives a marshal round trip.
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var decoded ExportData
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// Restore into a fresh store.
	_, importer2, manager2, cleanup2 := newTestPair(t)
	defer cleanup2()

	res, err := importer2.Import(ctx, &decoded)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.ImportedPages)
	assert.Empty(t, res.Errors)

	parent, err := manager2.GetPage(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, "Parent", parent.Title)
	assert.Equal(t, "hello", parent.TextContent, "derived fields recomputed on import")

	child, err := manager2.GetPage(ctx, "child")
	require.NoError(t, err)
	assert.Equal(t, "parent", child.ParentSlug)

	setting, err := manager2.GetSetting(ctx, "collapsed-pages")
	require.NoError(t, err)
	assert.JSONEq(t, `["parent"]`, string(setting))
}

func TestImportRejectsInvalidData(t *testing.T) {
	_, importer, _, cleanup := newTestPair(t)
	defer cleanup()
	ctx := context.Background()

	_, err := importer.Import(ctx, nil)
	assert.EqualError(t, err, "invalid import data: pages array not found")

	_, err = importer.Import(ctx, &ExportData{Version: ExportVersion})
	assert.EqualError(t, err, "invalid import data: pages array not found")
}

func TestImportPartialFailure(t *testing.T) {
	_, importer, manager, cleanup := newTestPair(t)
	defer cleanup()
	ctx := context.Background()

	data := &ExportData{
		Version: ExportVersion,
		Pages: []ExportPage{
			{Slug: "ok", Title: "OK", Content: json.RawMessage(testDoc)},
			{Slug: "", Title: "No Slug"},
			{Slug: "bad", Title: "Bad", Content: json.RawMessage(`"not a tree"`)},
		},
	}

	res, err := importer.Import(ctx, data)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.ImportedPages)
	assert.Len(t, res.Errors, 2)

	_, err = manager.GetPage(ctx, "ok")
	assert.NoError(t, err)
}

func TestImportOrdersParentsFirst(t *testing.T) {
	_, importer, manager, cleanup := newTestPair(t)
	defer cleanup()
	ctx := context.Background()

	// Sub-pages listed before their parents still import cleanly.
	data := &ExportData{
		Version: ExportVersion,
		Pages: []ExportPage{
			{Slug: "leaf", Title: "Leaf", ParentSlug: "root", IsSubPage: true},
			{Slug: "root", Title: "Root"},
		},
	}

	res, err := importer.Import(ctx, data)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.ImportedPages)

	leaf, err := manager.GetPage(ctx, "leaf")
	require.NoError(t, err)
	assert.Equal(t, "root", leaf.ParentSlug)
}
