// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "empty document",
			doc:  `{"type":"doc","content":[]}`,
			want: "",
		},
		{
			name: "single paragraph",
			doc:  `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hello world"}]}]}`,
			want: "hello world",
		},
		{
			name: "text nodes are space joined",
			doc: `{"type":"doc","content":[
				{"type":"paragraph","content":[{"type":"text","text":"first"}]},
				{"type":"paragraph","content":[{"type":"text","text":"second"}]}]}`,
			want: "first second",
		},
		{
			name: "nested lists",
			doc: `{"type":"doc","content":[{"type":"bulletList","content":[
				{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"one"}]}]},
				{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"two"}]}]}]}]}`,
			want: "one two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(json.RawMessage(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTextNilDocument(t *testing.T) {
	got, err := ExtractText(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExtractTextMalformed(t *testing.T) {
	// Valid JSON that is not a document tree.
	_, err := ExtractText(json.RawMessage(`"just a string"`))
	assert.Error(t, err)

	_, err = ExtractText(json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "empty document",
			doc:  `{"type":"doc","content":[]}`,
			want: "<div></div>",
		},
		{
			name: "paragraph",
			doc:  `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"hi"}]}]}`,
			want: "<div><p>hi</p></div>",
		},
		{
			name: "heading level from attrs",
			doc:  `{"type":"doc","content":[{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"Title"}]}]}`,
			want: "<div><h2>Title</h2></div>",
		},
		{
			name: "heading level out of range falls back to h1",
			doc:  `{"type":"doc","content":[{"type":"heading","attrs":{"level":9},"content":[{"type":"text","text":"T"}]}]}`,
			want: "<div><h1>T</h1></div>",
		},
		{
			name: "code block",
			doc:  `{"type":"doc","content":[{"type":"codeBlock","content":[{"type":"text","text":"x := 1"}]}]}`,
			want: "<div><pre><code>x := 1</code></pre></div>",
		},
		{
			name: "horizontal rule and hard break",
			doc:  `{"type":"doc","content":[{"type":"horizontalRule"},{"type":"paragraph","content":[{"type":"hardBreak"}]}]}`,
			want: "<div><hr><p><br></p></div>",
		},
		{
			name: "text is escaped",
			doc:  `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"<script>alert(1)</script>"}]}]}`,
			want: "<div><p>&lt;script&gt;alert(1)&lt;/script&gt;</p></div>",
		},
		{
			name: "unknown block degrades to text",
			doc:  `{"type":"doc","content":[{"type":"table","content":[{"type":"text","text":"cell"}]}]}`,
			want: "<div>cell</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderHTML(json.RawMessage(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmptyDocIsValid(t *testing.T) {
	assert.True(t, json.Valid(EmptyDoc()))

	text, err := ExtractText(EmptyDoc())
	require.NoError(t, err)
	assert.Empty(t, text)
}
