// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"accents removed", "Café au lait", "cafe-au-lait"},
		{"special characters stripped", "What?! Really...", "what-really"},
		{"multiple spaces", "a   b", "a-b"},
		{"leading and trailing hyphens trimmed", "--hello--", "hello"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
		{"numbers kept", "Page 42", "page-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestPageSlug(t *testing.T) {
	assert.Equal(t, "my-page", PageSlug("My Page"))
	assert.Equal(t, "untitled", PageSlug(""))
	assert.Equal(t, "untitled", PageSlug("???"))
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"hello-world", true},
		{"page-42", true},
		{"a", true},
		{"", false},
		{"Hello", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"with space", false},
		{"with/slash", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSlug(tt.slug))
		})
	}
}
