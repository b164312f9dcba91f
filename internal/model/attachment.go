// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Attachment is a file linked to a page. The editing surface uploads files
// through its own collaborator; the store only keeps the metadata.
type Attachment struct {
	ID         int64     `json:"id,omitempty"`
	UUID       string    `json:"uuid"`
	PageID     int64     `json:"pageId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}
