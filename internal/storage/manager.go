// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fucknotion/fucknotion-go/internal/content"
	"github.com/fucknotion/fucknotion-go/internal/model"
	"github.com/fucknotion/fucknotion-go/internal/store"
)

// maxParentDepth bounds the ancestor walk during cycle detection so a
// corrupted chain cannot loop forever.
const maxParentDepth = 64

// Manager is the SQLite-backed Backend implementation.
type Manager struct {
	db      *sql.DB
	queries *store.Queries
	dbPath  string
	logger  *slog.Logger
}

// NewManager creates a storage manager over an open page database.
// dbPath is used only for storage usage reporting.
func NewManager(db *sql.DB, dbPath string, logger *slog.Logger) *Manager {
	return &Manager{
		db:      db,
		queries: store.New(db),
		dbPath:  dbPath,
		logger:  logger,
	}
}

// SavePage creates or updates the page with the given slug and returns its
// identifier. The lookup and write run in one transaction, so the
// collection holds exactly one record per slug afterward and createdAt is
// preserved from the first save. textContent and htmlContent are always
// recomputed from the supplied content.
func (m *Manager) SavePage(ctx context.Context, slug string, in PageInput) (int64, error) {
	if slug == "" {
		return 0, errors.New("slug must not be empty")
	}

	text, err := content.ExtractText(in.Content)
	if err != nil {
		return 0, fmt.Errorf("extracting text for %q: %w", slug, err)
	}
	html, err := content.RenderHTML(in.Content)
	if err != nil {
		return 0, fmt.Errorf("rendering html for %q: %w", slug, err)
	}
	doc := in.Content
	if len(doc) == 0 {
		doc = content.EmptyDoc()
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning save transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := m.queries.WithTx(tx)

	if in.ParentSlug != "" {
		if err := checkParentChain(ctx, q, slug, in.ParentSlug); err != nil {
			return 0, err
		}
	}

	now := time.Now()
	existing, err := q.GetPageBySlug(ctx, slug)
	switch {
	case err == nil:
		if string(existing.Content) != string(doc) {
			if err := q.InsertPageVersion(ctx, existing.ID, existing.Content, now); err != nil {
				return 0, fmt.Errorf("recording version for %q: %w", slug, err)
			}
		}
		err = q.UpdatePage(ctx, store.UpdatePageParams{
			ID:              existing.ID,
			Title:           in.Title,
			Content:         doc,
			TextContent:     text,
			HTMLContent:     html,
			ParentSlug:      in.ParentSlug,
			IsSubPage:       in.IsSubPage,
			HideFromSidebar: in.HideFromSidebar,
			Tags:            existing.Tags,
			UpdatedAt:       now,
		})
		if err != nil {
			return 0, fmt.Errorf("updating page %q: %w", slug, err)
		}
		if cerr := tx.Commit(); cerr != nil {
			return 0, fmt.Errorf("committing save of %q: %w", slug, cerr)
		}
		return existing.ID, nil
	case errors.Is(err, sql.ErrNoRows):
		id, err := q.InsertPage(ctx, store.InsertPageParams{
			Slug:            slug,
			Title:           in.Title,
			Content:         doc,
			TextContent:     text,
			HTMLContent:     html,
			ParentSlug:      in.ParentSlug,
			IsSubPage:       in.IsSubPage,
			HideFromSidebar: in.HideFromSidebar,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return 0, fmt.Errorf("inserting page %q: %w", slug, err)
		}
		if cerr := tx.Commit(); cerr != nil {
			return 0, fmt.Errorf("committing save of %q: %w", slug, cerr)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("looking up page %q: %w", slug, err)
	}
}

// checkParentChain walks up from parentSlug and rejects the save when slug
// already appears among its ancestors. A missing ancestor ends the walk:
// the parent not existing yet is tolerated.
func checkParentChain(ctx context.Context, q *store.Queries, slug, parentSlug string) error {
	cur := parentSlug
	seen := map[string]bool{slug: true}
	for depth := 0; cur != "" && depth < maxParentDepth; depth++ {
		if seen[cur] {
			return fmt.Errorf("%w: %q via %q", ErrParentCycle, slug, parentSlug)
		}
		seen[cur] = true
		parent, err := q.GetPageBySlug(ctx, cur)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolving parent %q: %w", cur, err)
		}
		cur = parent.ParentSlug
	}
	return nil
}

// GetPage looks up a page by slug. Returns ErrPageNotFound on a miss.
func (m *Manager) GetPage(ctx context.Context, slug string) (model.Page, error) {
	p, err := m.queries.GetPageBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, ErrPageNotFound
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("getting page %q: %w", slug, err)
	}
	return p, nil
}

// GetAllPages returns the full page collection. Ordering is unspecified at
// this layer.
func (m *Manager) GetAllPages(ctx context.Context) ([]model.Page, error) {
	pages, err := m.queries.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pages, nil
}

// DeletePage deletes the page with the given slug together with its direct
// children, in a single transaction. Grandchildren are left untouched. An
// unknown slug is a silent no-op.
func (m *Manager) DeletePage(ctx context.Context, slug string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := m.queries.WithTx(tx)

	page, err := q.GetPageBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up page %q: %w", slug, err)
	}

	removed, err := q.DeleteChildPages(ctx, slug)
	if err != nil {
		return fmt.Errorf("deleting children of %q: %w", slug, err)
	}
	if err := q.DeletePage(ctx, page.ID); err != nil {
		return fmt.Errorf("deleting page %q: %w", slug, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete of %q: %w", slug, err)
	}
	if removed > 0 {
		m.logger.Info("cascade delete removed child pages", "slug", slug, "children", removed)
	}
	return nil
}

// SearchPages matches query case-insensitively against title or the
// plain-text projection. Title matches rank before content-only matches;
// within each group the most recently updated page comes first. The match
// itself runs over FilterPages, not SQL LIKE: LIKE treats "%" and "_" as
// wildcards and SQLite's lower() folds only ASCII, either of which would
// make this backend disagree with the fallback on the same query.
func (m *Manager) SearchPages(ctx context.Context, query string) ([]model.Page, error) {
	pages, err := m.queries.ListPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching pages: %w", err)
	}
	return FilterPages(pages, query), nil
}

// SaveSetting upserts a setting value. The payload is opaque JSON.
func (m *Manager) SaveSetting(ctx context.Context, key string, value json.RawMessage) error {
	if err := m.queries.UpsertSetting(ctx, key, value); err != nil {
		return fmt.Errorf("saving setting %q: %w", key, err)
	}
	return nil
}

// GetSetting looks up a setting value. Returns ErrSettingNotFound on a miss.
func (m *Manager) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	value, err := m.queries.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, nil
}

// StorageInfo reports page count plus best-effort quota and usage of the
// underlying database file.
func (m *Manager) StorageInfo(ctx context.Context) (Info, error) {
	count, err := m.queries.CountPages(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("counting pages: %w", err)
	}
	info := Info{PageCount: count}
	fi := store.FileInfo(m.dbPath)
	info.Usage = fi.Usage
	info.Quota = fi.Quota
	if fi.Usage != nil && fi.Quota != nil && *fi.Quota > 0 {
		pct := float64(*fi.Usage) / float64(*fi.Quota) * 100
		info.PercentUsed = &pct
	}
	return info, nil
}

// RecordAttachment stores attachment metadata for a page, assigning a
// fresh UUID.
func (m *Manager) RecordAttachment(ctx context.Context, slug, fileName, fileType string, fileSize int64, url string) (model.Attachment, error) {
	page, err := m.GetPage(ctx, slug)
	if err != nil {
		return model.Attachment{}, err
	}
	a := model.Attachment{
		UUID:       uuid.NewString(),
		PageID:     page.ID,
		FileName:   fileName,
		FileType:   fileType,
		FileSize:   fileSize,
		URL:        url,
		UploadedAt: time.Now(),
	}
	a.ID, err = m.queries.CreateAttachment(ctx, store.CreateAttachmentParams{
		UUID:       a.UUID,
		PageID:     a.PageID,
		FileName:   a.FileName,
		FileType:   a.FileType,
		FileSize:   a.FileSize,
		URL:        a.URL,
		UploadedAt: a.UploadedAt,
	})
	if err != nil {
		return model.Attachment{}, fmt.Errorf("recording attachment for %q: %w", slug, err)
	}
	return a, nil
}

// ListAttachments returns the attachment metadata recorded for a page.
func (m *Manager) ListAttachments(ctx context.Context, slug string) ([]model.Attachment, error) {
	page, err := m.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return m.queries.ListAttachmentsByPage(ctx, page.ID)
}

// PageVersions returns the recorded content snapshots for a page, newest
// first.
func (m *Manager) PageVersions(ctx context.Context, slug string) ([]model.PageVersion, error) {
	page, err := m.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return m.queries.ListPageVersions(ctx, page.ID)
}

// CleanupOldVersions removes content snapshots older than daysToKeep days
// and returns the number removed.
func (m *Manager) CleanupOldVersions(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -daysToKeep)
	removed, err := m.queries.DeleteVersionsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old versions: %w", err)
	}
	return removed, nil
}

// Ensure Manager implements Backend.
var _ Backend = (*Manager)(nil)
