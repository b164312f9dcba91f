// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "encoding/json"

// Well-known setting keys carried over from the legacy scheme.
const (
	SettingAPIConfig         = "api-config"
	SettingBackgroundImage   = "background-image"
	SettingBackgroundOpacity = "background-opacity"
	SettingCollapsedPages    = "collapsed-pages"
)

// Setting is a key/value pair; Value is an arbitrary serializable payload
// the core never inspects.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}
