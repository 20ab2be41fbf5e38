// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// EditFormat
// =============================================================================

func TestParseEditFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    EditFormat
		wantErr bool
	}{
		{"", FormatWhole, false},
		{"  ", FormatWhole, false},
		{"whole", FormatWhole, false},
		{"diff", FormatDiff, false},
		{"diff-fenced", FormatDiffFenced, false},
		{"udiff", FormatUdiff, false},
		{"patch", "", true},
		{"WHOLE", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEditFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownEditFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditFormat_SupportsCreateDelete(t *testing.T) {
	assert.True(t, FormatWhole.SupportsCreateDelete())
	assert.False(t, FormatDiff.SupportsCreateDelete())
	assert.False(t, FormatDiffFenced.SupportsCreateDelete())
	assert.False(t, FormatUdiff.SupportsCreateDelete())
	assert.Len(t, Formats(), 4)
}

func TestParse_Dispatch(t *testing.T) {
	ops, err := Parse(FormatWhole, "**a.js**\n```js\nconst x=2;\n```")
	require.NoError(t, err)
	assert.Equal(t, FormatWhole, ops.Format)
	assert.Len(t, ops.Whole, 1)
	assert.False(t, ops.Empty())
	assert.Equal(t, []string{"a.js"}, ops.FileNames())

	ops, err = Parse(FormatDiff, "I could not find anything to change.")
	require.NoError(t, err)
	assert.True(t, ops.Empty(), "prose only must be a parse miss")

	_, err = Parse("bogus", "")
	assert.ErrorIs(t, err, ErrUnknownEditFormat)
}

// =============================================================================
// Whole
// =============================================================================

// TestParseWhole_SingleBlock verifies the basic bold-name + fence layout.
func TestParseWhole_SingleBlock(t *testing.T) {
	got := ParseWhole("**a.js**\n```js\nconst x=2;\n```")
	assert.Equal(t, []WholeFileEntry{{Name: "a.js", Text: "const x=2;"}}, got)
}

func TestParseWhole_Variants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []WholeFileEntry
	}{
		{
			name: "backticked name and blank line before fence",
			in:   "**`src/a.js`**\n\n```\nx\n```",
			want: []WholeFileEntry{{Name: "src/a.js", Text: "x"}},
		},
		{
			name: "empty block",
			in:   "**test.js**\n```\n```",
			want: []WholeFileEntry{{Name: "test.js", Text: ""}},
		},
		{
			name: "blank lines inside content are kept",
			in:   "**test.js**\n\n```js\nfunction a() {}\n\n\nfunction b() {}\n```",
			want: []WholeFileEntry{{Name: "test.js", Text: "function a() {}\n\n\nfunction b() {}"}},
		},
		{
			name: "prose around several blocks",
			in: "Here are the changes.\n\n**a.js**\n```js\n1\n```\n\nAnd the readme:\n\n" +
				"**README.md**\n```markdown\n# title\n```\nDone.",
			want: []WholeFileEntry{
				{Name: "a.js", Text: "1"},
				{Name: "README.md", Text: "# title"},
			},
		},
		{
			name: "bold heading without fence",
			in:   "**Note**\nThis is not a file.",
			want: nil,
		},
		{
			name: "unclosed fence runs to end",
			in:   "**a.js**\n```js\nline 1\nline 2",
			want: []WholeFileEntry{{Name: "a.js", Text: "line 1\nline 2"}},
		},
		{
			name: "crlf line endings",
			in:   "**a.js**\r\n```\r\nx\r\ny\r\n```\r\n",
			want: []WholeFileEntry{{Name: "a.js", Text: "x\ny"}},
		},
		{
			name: "indented content verbatim",
			in:   "**a.py**\n```python\ndef f():\n    return 1\n```",
			want: []WholeFileEntry{{Name: "a.py", Text: "def f():\n    return 1"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWhole(tt.in))
		})
	}
}

// TestCollapseWhole verifies last-wins with first-appearance order.
func TestCollapseWhole(t *testing.T) {
	in := []WholeFileEntry{
		{Name: "a.js", Text: "1"},
		{Name: "b.js", Text: "b"},
		{Name: "a.js", Text: "2"},
	}
	assert.Equal(t, []WholeFileEntry{
		{Name: "a.js", Text: "2"},
		{Name: "b.js", Text: "b"},
	}, CollapseWhole(in))
	assert.Empty(t, CollapseWhole(nil))
}

// =============================================================================
// Diff / Diff-fenced
// =============================================================================

func TestParseDiff_SingleBlock(t *testing.T) {
	in := "a.js\n```js\n<<<<<<< SEARCH\nconst x=1;\n=======\nconst x=2;\n>>>>>>> REPLACE\n```"
	assert.Equal(t, []Diff{{FileName: "a.js", Search: "const x=1;", Replace: "const x=2;"}}, ParseDiff(in))
}

func TestParseDiff_Variants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Diff
	}{
		{
			name: "multiline search and replace",
			in: "test.js\n```\n<<<<<<< SEARCH\nfunction test() {\n  return 1;\n}\n=======\n" +
				"function test() {\n  return 2;\n}\n>>>>>>> REPLACE\n```",
			want: []Diff{{
				FileName: "test.js",
				Search:   "function test() {\n  return 1;\n}",
				Replace:  "function test() {\n  return 2;\n}",
			}},
		},
		{
			name: "several pairs in one fence",
			in: "a.js\n```\n<<<<<<< SEARCH\none\n=======\n1\n>>>>>>> REPLACE\n\n" +
				"<<<<<<< SEARCH\ntwo\n=======\n2\n>>>>>>> REPLACE\n```",
			want: []Diff{
				{FileName: "a.js", Search: "one", Replace: "1"},
				{FileName: "a.js", Search: "two", Replace: "2"},
			},
		},
		{
			name: "two files with prose",
			in: "First:\n\na.js\n```\n<<<<<<< SEARCH\na\n=======\nA\n>>>>>>> REPLACE\n```\n\nThen:\n\n" +
				"**b.js**\n```\n<<<<<<< SEARCH\nb\n=======\nB\n>>>>>>> REPLACE\n```",
			want: []Diff{
				{FileName: "a.js", Search: "a", Replace: "A"},
				{FileName: "b.js", Search: "b", Replace: "B"},
			},
		},
		{
			name: "empty replace deletes text",
			in:   "a.js\n```\n<<<<<<< SEARCH\nremove me\n=======\n>>>>>>> REPLACE\n```",
			want: []Diff{{FileName: "a.js", Search: "remove me", Replace: ""}},
		},
		{
			name: "missing divider",
			in:   "a.js\n```\n<<<<<<< SEARCH\nold\n>>>>>>> REPLACE\n```",
			want: nil,
		},
		{
			name: "missing replace marker",
			in:   "a.js\n```\n<<<<<<< SEARCH\nold\n=======\nnew\n```",
			want: nil,
		},
		{
			name: "filename not directly before fence",
			in:   "a.js\n\n```\n<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n```",
			want: nil,
		},
		{
			name: "fenced layout is not diff",
			in:   "```js\na.js\n<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n```",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDiff(tt.in))
		})
	}
}

func TestParseDiffFenced(t *testing.T) {
	in := "```js\na.js\n<<<<<<< SEARCH\nconst x=1;\n=======\nconst x=2;\n>>>>>>> REPLACE\n```\n\n" +
		"```\nsrc/b.js\n<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n```"
	assert.Equal(t, []Diff{
		{FileName: "a.js", Search: "const x=1;", Replace: "const x=2;"},
		{FileName: "src/b.js", Search: "old", Replace: "new"},
	}, ParseDiffFenced(in))

	// The bare-filename layout is not diff-fenced.
	bare := "a.js\n```js\n<<<<<<< SEARCH\nold\n=======\nnew\n>>>>>>> REPLACE\n```"
	assert.Empty(t, ParseDiffFenced(bare))
}

// =============================================================================
// Udiff
// =============================================================================

// TestParseUdiff_Reconstruction verifies context/removed/added classification.
func TestParseUdiff_Reconstruction(t *testing.T) {
	in := "```diff\n--- a.js\n+++ a.js\n@@ ... @@\n a\n-b\n+x\n c\n```"
	assert.Equal(t, []UdiffHunk{{FileName: "a.js", Original: "a\nb\nc", Updated: "a\nx\nc"}}, ParseUdiff(in))
}

func TestParseUdiff_Variants(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []UdiffHunk
	}{
		{
			name: "context leading space stripped once",
			in:   "--- test.js\n+++ test.js\n@@ -1,3 +1,3 @@\n line 1\n-line 2\n+new line 2\n   indented",
			want: []UdiffHunk{{
				FileName: "test.js",
				Original: "line 1\nline 2\n  indented",
				Updated:  "line 1\nnew line 2\n  indented",
			}},
		},
		{
			name: "multiple hunks",
			in: "--- test.js\n+++ test.js\n@@ -1,2 +1,1 @@\n context 1\n-delete 1\n" +
				"@@ -5,1 +4,2 @@\n context 1\n+add 1",
			want: []UdiffHunk{
				{FileName: "test.js", Original: "context 1\ndelete 1", Updated: "context 1"},
				{FileName: "test.js", Original: "context 1", Updated: "context 1\nadd 1"},
			},
		},
		{
			name: "git prefixes and timestamps",
			in:   "--- a/src/x.go\t2024-01-01 00:00:00\n+++ b/src/x.go\t2024-01-02 00:00:00\n@@ -1 +1 @@\n-old\n+new",
			want: []UdiffHunk{{FileName: "src/x.go", Original: "old", Updated: "new"}},
		},
		{
			name: "mismatched names skipped",
			in:   "--- a.js\n+++ b.js\n@@ @@\n-x\n+y",
			want: nil,
		},
		{
			name: "creation from dev null skipped",
			in:   "--- /dev/null\n+++ new.js\n@@ -0,0 +1 @@\n+hello",
			want: nil,
		},
		{
			name: "no newline marker ignored",
			in:   "--- a.txt\n+++ a.txt\n@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file",
			want: []UdiffHunk{{FileName: "a.txt", Original: "old", Updated: "new"}},
		},
		{
			name: "trailing empty lines dropped",
			in:   "```diff\n--- a.js\n+++ a.js\n@@ @@\n x\n-y\n+z\n\n\n```\nThat's all.",
			want: []UdiffHunk{{FileName: "a.js", Original: "x\ny", Updated: "x\nz"}},
		},
		{
			name: "two files",
			in: "--- a.js\n+++ a.js\n@@ @@\n-1\n+2\n" +
				"--- b.js\n+++ b.js\n@@ @@\n-3\n+4",
			want: []UdiffHunk{
				{FileName: "a.js", Original: "1", Updated: "2"},
				{FileName: "b.js", Original: "3", Updated: "4"},
			},
		},
		{
			name: "lines before first hunk ignored",
			in:   "--- a.js\n+++ a.js\nindex 123..456\n@@ @@\n-1\n+2",
			want: []UdiffHunk{{FileName: "a.js", Original: "1", Updated: "2"}},
		},
		{
			name: "context line starting with @@ stays in hunk",
			in:   "--- a.py\n+++ a.py\n@@ -1,3 +1,3 @@\n @@ decorator @@\n-old\n+new",
			want: []UdiffHunk{{FileName: "a.py", Original: "@@ decorator @@\nold", Updated: "@@ decorator @@\nnew"}},
		},
		{
			name: "header without hunks",
			in:   "--- a.js\n+++ a.js\n",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUdiff(tt.in))
		})
	}
}
