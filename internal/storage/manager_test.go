// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fucknotion/fucknotion-go/internal/testutil"
)

func newTestManager(t *testing.T) (*Manager, func()) {
	t.Helper()
	db, dbPath, cleanup := testutil.TestDB(t)
	return NewManager(db, dbPath, testutil.TestLoggerSilent()), cleanup
}

func doc(text string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":%q}]}]}`, text))
}

func TestSavePageCreatesAndUpdates(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	id1, err := m.SavePage(ctx, "my-page", PageInput{Title: "My Page", Content: doc("hello")})
	require.NoError(t, err)
	assert.Positive(t, id1)

	created, err := m.GetPage(ctx, "my-page")
	require.NoError(t, err)
	assert.Equal(t, "My Page", created.Title)
	assert.Equal(t, "hello", created.TextContent)
	assert.Contains(t, created.HTMLContent, "<p>hello</p>")
	assert.False(t, created.CreatedAt.IsZero())

	// Saving the same slug again must update, not duplicate.
	time.Sleep(10 * time.Millisecond)
	id2, err := m.SavePage(ctx, "my-page", PageInput{Title: "Renamed", Content: doc("changed")})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	updated, err := m.GetPage(ctx, "my-page")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "changed", updated.TextContent)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix(), "createdAt must survive updates")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	all, err := m.GetAllPages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "one record per slug")
}

func TestSavePageRejectsEmptySlug(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	_, err := m.SavePage(context.Background(), "", PageInput{Title: "x"})
	assert.Error(t, err)
}

func TestSavePageEmptyContentBecomesEmptyDoc(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "empty", PageInput{Title: "Empty"})
	require.NoError(t, err)

	page, err := m.GetPage(ctx, "empty")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[]}`, string(page.Content))
	assert.Empty(t, page.TextContent)
}

func TestSavePageMalformedContent(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	// Valid JSON that is not a document tree fails derivation.
	_, err := m.SavePage(context.Background(), "bad", PageInput{
		Title:   "Bad",
		Content: json.RawMessage(`"just a string"`),
	})
	require.Error(t, err)

	_, err = m.GetPage(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrPageNotFound, "failed save must not leave a record")
}

func TestSavePageRejectsParentCycle(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "a", PageInput{Title: "A"})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "b", PageInput{Title: "B", ParentSlug: "a", IsSubPage: true})
	require.NoError(t, err)

	// a -> b would close the loop a -> b -> a.
	_, err = m.SavePage(ctx, "a", PageInput{Title: "A", ParentSlug: "b"})
	assert.ErrorIs(t, err, ErrParentCycle)

	// Self-parenting is the smallest cycle.
	_, err = m.SavePage(ctx, "c", PageInput{Title: "C", ParentSlug: "c"})
	assert.ErrorIs(t, err, ErrParentCycle)
}

func TestSavePageToleratesMissingParent(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	_, err := m.SavePage(context.Background(), "orphan", PageInput{
		Title: "Orphan", ParentSlug: "nowhere", IsSubPage: true,
	})
	assert.NoError(t, err)
}

func TestDeletePageCascadesToDirectChildrenOnly(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "parent", PageInput{Title: "Parent"})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "child", PageInput{Title: "Child", ParentSlug: "parent", IsSubPage: true})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "grandchild", PageInput{Title: "Grandchild", ParentSlug: "child", IsSubPage: true})
	require.NoError(t, err)

	require.NoError(t, m.DeletePage(ctx, "parent"))

	_, err = m.GetPage(ctx, "parent")
	assert.ErrorIs(t, err, ErrPageNotFound)
	_, err = m.GetPage(ctx, "child")
	assert.ErrorIs(t, err, ErrPageNotFound)

	// The grandchild survives with a dangling parent reference.
	_, err = m.GetPage(ctx, "grandchild")
	assert.NoError(t, err)
}

func TestDeletePageUnknownSlugIsNoOp(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	assert.NoError(t, m.DeletePage(context.Background(), "missing"))
}

func TestSearchPagesRanking(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "body-match", PageInput{Title: "Other", Content: doc("the recipe collection")})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = m.SavePage(ctx, "old-title-match", PageInput{Title: "Recipe Book", Content: doc("nothing")})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = m.SavePage(ctx, "new-title-match", PageInput{Title: "My Recipes", Content: doc("nothing")})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "unrelated", PageInput{Title: "Shopping", Content: doc("milk and eggs")})
	require.NoError(t, err)

	results, err := m.SearchPages(ctx, "RECIPE")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Title matches first, newest first within the group; content-only last.
	assert.Equal(t, "new-title-match", results[0].Slug)
	assert.Equal(t, "old-title-match", results[1].Slug)
	assert.Equal(t, "body-match", results[2].Slug)
}

func TestSearchPagesNoMatches(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	results, err := m.SearchPages(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPagesTreatsWildcardCharactersLiterally(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "sale-percent", PageInput{Title: "Sale 50% off", Content: doc("discount")})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "sale-cents", PageInput{Title: "Sale 50 cents", Content: doc("small change")})
	require.NoError(t, err)

	// "%" is part of the query text, not an any-sequence wildcard.
	results, err := m.SearchPages(ctx, "50%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sale-percent", results[0].Slug)

	// "_" must not act as a single-character wildcard either.
	results, err = m.SearchPages(ctx, "s_le")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchPagesFoldsNonASCIICase(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "apfel", PageInput{Title: "Äpfel kaufen", Content: doc("obst")})
	require.NoError(t, err)

	for _, query := range []string{"Äpfel", "äpfel", "ÄPFEL"} {
		results, err := m.SearchPages(ctx, query)
		require.NoError(t, err)
		require.Len(t, results, 1, "query %q", query)
		assert.Equal(t, "apfel", results[0].Slug)
	}
}

func TestSettings(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.GetSetting(ctx, "missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)

	require.NoError(t, m.SaveSetting(ctx, "background-opacity", json.RawMessage(`0.5`)))
	value, err := m.GetSetting(ctx, "background-opacity")
	require.NoError(t, err)
	assert.JSONEq(t, `0.5`, string(value))

	// Upsert replaces the value.
	require.NoError(t, m.SaveSetting(ctx, "background-opacity", json.RawMessage(`0.8`)))
	value, err = m.GetSetting(ctx, "background-opacity")
	require.NoError(t, err)
	assert.JSONEq(t, `0.8`, string(value))
}

func TestPageVersionsRecordedOnContentChange(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "page", PageInput{Title: "Page", Content: doc("v1")})
	require.NoError(t, err)

	versions, err := m.PageVersions(ctx, "page")
	require.NoError(t, err)
	assert.Empty(t, versions, "initial save records no version")

	// Title-only change records no version either.
	_, err = m.SavePage(ctx, "page", PageInput{Title: "Renamed", Content: doc("v1")})
	require.NoError(t, err)
	versions, err = m.PageVersions(ctx, "page")
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = m.SavePage(ctx, "page", PageInput{Title: "Renamed", Content: doc("v2")})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "page", PageInput{Title: "Renamed", Content: doc("v3")})
	require.NoError(t, err)

	versions, err = m.PageVersions(ctx, "page")
	require.NoError(t, err)
	require.Len(t, versions, 2)

	// Snapshots hold the content as it was before each change.
	text0, err := extractVersionText(versions[0].Content)
	require.NoError(t, err)
	text1, err := extractVersionText(versions[1].Content)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "v2"}, []string{text0, text1})
}

func extractVersionText(raw json.RawMessage) (string, error) {
	var node struct {
		Content []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &node); err != nil {
		return "", err
	}
	if len(node.Content) == 0 || len(node.Content[0].Content) == 0 {
		return "", nil
	}
	return node.Content[0].Content[0].Text, nil
}

func TestCleanupOldVersions(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.SavePage(ctx, "page", PageInput{Title: "Page", Content: doc("v1")})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "page", PageInput{Title: "Page", Content: doc("v2")})
	require.NoError(t, err)

	// Fresh snapshots are inside any positive retention window.
	removed, err := m.CleanupOldVersions(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A negative retention puts the cutoff in the future.
	removed, err = m.CleanupOldVersions(ctx, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestStorageInfo(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	info, err := m.StorageInfo(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.PageCount)

	_, err = m.SavePage(ctx, "one", PageInput{Title: "One"})
	require.NoError(t, err)
	_, err = m.SavePage(ctx, "two", PageInput{Title: "Two"})
	require.NoError(t, err)

	info, err = m.StorageInfo(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.PageCount)
	if info.Usage != nil {
		assert.Positive(t, *info.Usage)
	}
}

func TestAttachments(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()
	ctx := context.Background()

	_, err := m.RecordAttachment(ctx, "missing", "f.png", "image/png", 10, "blob:1")
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = m.SavePage(ctx, "page", PageInput{Title: "Page"})
	require.NoError(t, err)

	a, err := m.RecordAttachment(ctx, "page", "photo.png", "image/png", 2048, "blob:abc")
	require.NoError(t, err)
	assert.NotEmpty(t, a.UUID)
	assert.Positive(t, a.ID)

	list, err := m.ListAttachments(ctx, "page")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "photo.png", list[0].FileName)
	assert.EqualValues(t, 2048, list[0].FileSize)
}

func TestGetPageNotFound(t *testing.T) {
	m, cleanup := newTestManager(t)
	defer cleanup()

	_, err := m.GetPage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.NotErrorIs(t, err, sql.ErrNoRows, "driver errors must not leak")
}
