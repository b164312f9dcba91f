// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content provides helpers over the rich-text document tree.
// The tree itself is opaque JSON produced by the editor; the storage core
// only ever traverses it to derive plain-text and HTML projections.
package content

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Node is one node of the editor document tree. Unknown fields are
// preserved by storing the raw document alongside, so this struct only
// needs the parts the projections traverse.
type Node struct {
	Type    string         `json:"type,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
}

// snapshotPolicy sanitizes the derived HTML snapshot before it is persisted.
var snapshotPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "pre", "code", "br", "hr")
	return p
}()

// EmptyDoc returns the canonical empty document.
func EmptyDoc() json.RawMessage {
	return json.RawMessage(`{"type":"doc","content":[]}`)
}

// parse decodes a raw document into a Node tree. A nil or empty document
// decodes to an empty doc rather than an error.
func parse(raw json.RawMessage) (Node, error) {
	if len(raw) == 0 {
		raw = EmptyDoc()
	}
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return Node{}, fmt.Errorf("parsing document: %w", err)
	}
	return n, nil
}

// ExtractText flattens every text node of the document, space-joined and
// trimmed. Used for the search projection.
func ExtractText(raw json.RawMessage) (string, error) {
	root, err := parse(raw)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	var walk func(n Node)
	walk = func(n Node) {
		if n.Text != "" {
			sb.WriteString(n.Text)
			sb.WriteString(" ")
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(root)
	return strings.TrimSpace(sb.String()), nil
}

// RenderHTML derives the HTML snapshot used for export and preview. The
// output covers block-level structure only; inline marks are flattened to
// their text. The result is sanitized before being returned.
func RenderHTML(raw json.RawMessage) (string, error) {
	root, err := parse(raw)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("<div>")
	for _, child := range root.Content {
		renderNode(&sb, child)
	}
	sb.WriteString("</div>")
	return snapshotPolicy.Sanitize(sb.String()), nil
}

func renderNode(sb *strings.Builder, n Node) {
	switch n.Type {
	case "paragraph":
		wrap(sb, "p", n)
	case "heading":
		level := 1
		if v, ok := n.Attrs["level"].(float64); ok && v >= 1 && v <= 6 {
			level = int(v)
		}
		tag := fmt.Sprintf("h%d", level)
		wrap(sb, tag, n)
	case "bulletList":
		wrap(sb, "ul", n)
	case "orderedList":
		wrap(sb, "ol", n)
	case "listItem", "taskItem":
		wrap(sb, "li", n)
	case "blockquote":
		wrap(sb, "blockquote", n)
	case "codeBlock":
		sb.WriteString("<pre><code>")
		renderChildren(sb, n)
		sb.WriteString("</code></pre>")
	case "horizontalRule":
		sb.WriteString("<hr>")
	case "hardBreak":
		sb.WriteString("<br>")
	case "text", "":
		if n.Text != "" {
			sb.WriteString(html.EscapeString(n.Text))
		}
		renderChildren(sb, n)
	default:
		// Unknown block types (tables, embeds, ...) degrade to their text.
		renderChildren(sb, n)
	}
}

func renderChildren(sb *strings.Builder, n Node) {
	for _, child := range n.Content {
		renderNode(sb, child)
	}
}

func wrap(sb *strings.Builder, tag string, n Node) {
	sb.WriteString("<" + tag + ">")
	renderChildren(sb, n)
	sb.WriteString("</" + tag + ">")
}
