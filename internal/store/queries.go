// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fucknotion/fucknotion-go/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so that every query can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries is the query facade over the page database.
type Queries struct {
	db DBTX
}

// New creates a Queries facade bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries facade bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const pageColumns = `id, slug, title, content, text_content, html_content,
	parent_slug, is_sub_page, hide_from_sidebar, tags, created_at, updated_at`

// scanPage scans one pages row.
func scanPage(row interface{ Scan(...any) error }) (model.Page, error) {
	var (
		p          model.Page
		content    []byte
		parentSlug sql.NullString
		tags       []byte
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &content, &p.TextContent,
		&p.HTMLContent, &parentSlug, &p.IsSubPage, &p.HideFromSidebar,
		&tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Page{}, err
	}
	p.Content = json.RawMessage(content)
	p.ParentSlug = parentSlug.String
	if len(tags) > 0 {
		_ = json.Unmarshal(tags, &p.Tags)
	}
	return p, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetPageBySlug returns the page with the given slug.
// Callers treat sql.ErrNoRows as a normal not-found outcome.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (model.Page, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug)
	return scanPage(row)
}

// ListPages returns every page. Ordering is imposed by consumers.
func (q *Queries) ListPages(ctx context.Context) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages`)
	if err != nil {
		return nil, err
	}
	return CollectPages(rows)
}

// ListChildPages returns the direct children of the page with parentSlug.
func (q *Queries) ListChildPages(ctx context.Context, parentSlug string) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE parent_slug = ?`, parentSlug)
	if err != nil {
		return nil, err
	}
	return CollectPages(rows)
}

// CollectPages drains rows produced by a pages SELECT.
func CollectPages(rows *sql.Rows) ([]model.Page, error) {
	defer func() { _ = rows.Close() }()
	var pages []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountPages returns the total number of pages.
func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	return n, err
}

// InsertPageParams holds the fields for a new page record.
type InsertPageParams struct {
	Slug            string
	Title           string
	Content         json.RawMessage
	TextContent     string
	HTMLContent     string
	ParentSlug      string
	IsSubPage       bool
	HideFromSidebar bool
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InsertPage inserts a new page and returns its identifier. The UNIQUE
// index on slug rejects a duplicate insert.
func (q *Queries) InsertPage(ctx context.Context, p InsertPageParams) (int64, error) {
	tags, _ := json.Marshal(p.Tags)
	if p.Tags == nil {
		tags = []byte(`[]`)
	}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO pages (slug, title, content, text_content, html_content,
			parent_slug, is_sub_page, hide_from_sidebar, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, string(p.Content), p.TextContent, p.HTMLContent,
		nullString(p.ParentSlug), p.IsSubPage, p.HideFromSidebar, string(tags),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdatePageParams holds the fields for updating an existing page in place.
// CreatedAt is never touched by an update.
type UpdatePageParams struct {
	ID              int64
	Title           string
	Content         json.RawMessage
	TextContent     string
	HTMLContent     string
	ParentSlug      string
	IsSubPage       bool
	HideFromSidebar bool
	Tags            []string
	UpdatedAt       time.Time
}

// UpdatePage updates an existing page record in place.
func (q *Queries) UpdatePage(ctx context.Context, p UpdatePageParams) error {
	tags, _ := json.Marshal(p.Tags)
	if p.Tags == nil {
		tags = []byte(`[]`)
	}
	_, err := q.db.ExecContext(ctx, `
		UPDATE pages SET title = ?, content = ?, text_content = ?,
			html_content = ?, parent_slug = ?, is_sub_page = ?,
			hide_from_sidebar = ?, tags = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, string(p.Content), p.TextContent, p.HTMLContent,
		nullString(p.ParentSlug), p.IsSubPage, p.HideFromSidebar, string(tags),
		p.UpdatedAt, p.ID)
	return err
}

// DeletePage deletes one page by identifier.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

// DeleteChildPages deletes the direct children of parentSlug and returns
// the number of rows removed.
func (q *Queries) DeleteChildPages(ctx context.Context, parentSlug string) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM pages WHERE parent_slug = ?`, parentSlug)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertSetting inserts or replaces a setting value.
func (q *Queries) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(value))
	return err
}

// GetSetting returns the raw value for key.
// Callers treat sql.ErrNoRows as a normal not-found outcome.
func (q *Queries) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var value []byte
	err := q.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(value), nil
}

// ListSettings returns every setting.
func (q *Queries) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var settings []model.Setting
	for rows.Next() {
		var s model.Setting
		var value []byte
		if err := rows.Scan(&s.Key, &value); err != nil {
			return nil, err
		}
		s.Value = json.RawMessage(value)
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// InsertPageVersion records a content snapshot for a page, assigning the
// next version number.
func (q *Queries) InsertPageVersion(ctx context.Context, pageID int64, content json.RawMessage, createdAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO page_versions (page_id, content, version_number, created_at)
		SELECT ?, ?, COALESCE(MAX(version_number), 0) + 1, ?
		FROM page_versions WHERE page_id = ?`,
		pageID, string(content), createdAt, pageID)
	return err
}

// ListPageVersions returns the snapshots for a page, newest first.
func (q *Queries) ListPageVersions(ctx context.Context, pageID int64) ([]model.PageVersion, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, page_id, content, version_number, created_at
		FROM page_versions WHERE page_id = ?
		ORDER BY version_number DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var versions []model.PageVersion
	for rows.Next() {
		var v model.PageVersion
		var content []byte
		if err := rows.Scan(&v.ID, &v.PageID, &content, &v.VersionNumber, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Content = json.RawMessage(content)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DeleteVersionsBefore removes snapshots created before cutoff and returns
// the number removed.
func (q *Queries) DeleteVersionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM page_versions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateAttachmentParams holds the fields for a new attachment record.
type CreateAttachmentParams struct {
	UUID       string
	PageID     int64
	FileName   string
	FileType   string
	FileSize   int64
	URL        string
	UploadedAt time.Time
}

// CreateAttachment records attachment metadata for a page.
func (q *Queries) CreateAttachment(ctx context.Context, a CreateAttachmentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO attachments (uuid, page_id, file_name, file_type, file_size, url, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UUID, a.PageID, a.FileName, a.FileType, a.FileSize, a.URL, a.UploadedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttachmentsByPage returns the attachments recorded for a page,
// newest upload first.
func (q *Queries) ListAttachmentsByPage(ctx context.Context, pageID int64) ([]model.Attachment, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, uuid, page_id, file_name, file_type, file_size, url, uploaded_at
		FROM attachments WHERE page_id = ?
		ORDER BY uploaded_at DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.UUID, &a.PageID, &a.FileName,
			&a.FileType, &a.FileSize, &a.URL, &a.UploadedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
