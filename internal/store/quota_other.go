// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix

package store

// fsQuota is unavailable on this platform; callers omit the quota field.
func fsQuota(string) (uint64, bool) {
	return 0, false
}
