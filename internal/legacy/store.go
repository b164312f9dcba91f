// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package legacy implements the prior flat storage scheme: a single
// key/value file holding serialized JSON blobs under fixed well-known keys.
// It remains both the migration source and the fallback write path when the
// page database is unavailable.
package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Well-known keys of the legacy scheme. The key names are part of the
// on-disk format and must not change.
const (
	KeyPages             = "novel-pages"
	KeyContent           = "novel-content"
	KeyAPIConfig         = "novel-api-config"
	KeyBackgroundImage   = "novel-background-image"
	KeyBackgroundOpacity = "novel-background-opacity"
	KeyCollapsedPages    = "novel-collapsed-pages"
	KeyHTMLContent       = "html-content"
	KeyMarkdown          = "markdown"

	// KeyMigrated is the completion marker for the one-time migration.
	KeyMigrated = "indexeddb-migrated"

	KeyBackup     = "novel-localStorage-backup"
	KeyBackupDate = "novel-localStorage-backup-date"
)

// PageRecord is one entry of the legacy page index blob.
type PageRecord struct {
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content,omitempty"`
	ParentSlug      string          `json:"parentSlug,omitempty"`
	IsSubPage       bool            `json:"isSubPage,omitempty"`
	HideFromSidebar bool            `json:"hideFromSidebar,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Store is a file-backed key/value map with localStorage semantics: string
// keys, string values, whole-store persistence on every write.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store backed by the file at path. The file is created
// lazily on first write; a missing file reads as an empty store.
func Open(path string) *Store {
	return &Store{path: path}
}

// load reads the whole key/value map from disk.
func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy store: %w", err)
	}
	data := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parsing legacy store: %w", err)
		}
	}
	return data, nil
}

// save writes the whole map atomically (temp file, then rename).
func (s *Store) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding legacy store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating legacy store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing legacy store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing legacy store: %w", err)
	}
	return nil
}

// Get returns the value stored under key, reporting whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Has reports whether key is present. A read failure counts as absent.
func (s *Store) Has(key string) bool {
	_, ok, err := s.Get(key)
	return err == nil && ok
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.save(data)
}

// Keys returns every key present, sorted.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// decodePages parses the page index blob out of a loaded map.
func decodePages(data map[string]string) (map[string]PageRecord, error) {
	pages := map[string]PageRecord{}
	raw, ok := data[KeyPages]
	if !ok || raw == "" {
		return pages, nil
	}
	if err := json.Unmarshal([]byte(raw), &pages); err != nil {
		return nil, fmt.Errorf("parsing legacy page index: %w", err)
	}
	return pages, nil
}

// Pages decodes the page index blob. A missing blob reads as empty.
func (s *Store) Pages() (map[string]PageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return decodePages(data)
}

// UpdatePages applies fn to the decoded page index blob and writes the
// result back, all under one lock so concurrent mutations cannot lose
// entries.
func (s *Store) UpdatePages(fn func(pages map[string]PageRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	pages, err := decodePages(data)
	if err != nil {
		return err
	}
	fn(pages)
	raw, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("encoding legacy page index: %w", err)
	}
	data[KeyPages] = string(raw)
	return s.save(data)
}

// PutPage upserts one entry of the page index blob.
func (s *Store) PutPage(slug string, rec PageRecord) error {
	return s.UpdatePages(func(pages map[string]PageRecord) {
		pages[slug] = rec
	})
}

// RemovePages deletes the given slugs from the page index blob.
func (s *Store) RemovePages(slugs ...string) error {
	return s.UpdatePages(func(pages map[string]PageRecord) {
		for _, slug := range slugs {
			delete(pages, slug)
		}
	})
}
