// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package store

import (
	"path/filepath"
	"syscall"
)

// fsQuota reports the total capacity of the filesystem holding path.
func fsQuota(path string) (uint64, bool) {
	var st syscall.Statfs_t
	dir := filepath.Dir(path)
	if err := syscall.Statfs(dir, &st); err != nil {
		return 0, false
	}
	return st.Blocks * uint64(st.Bsize), true
}
