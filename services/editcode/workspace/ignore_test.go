// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		includes []string
		excludes []string
		path     string
		want     bool
	}{
		{"no patterns includes all", nil, nil, "src/main.js", true},
		{"simple include matches base name", []string{"*.js"}, nil, "src/main.js", true},
		{"simple include rejects non-match", []string{"*.js"}, nil, "main.py", false},
		{"** matches deeply nested", []string{"**/*.js"}, nil, "a/b/c/main.js", true},
		{"** matches at root", []string{"**/*.js"}, nil, "main.js", true},
		{"prefix/** matches below prefix", []string{"src/**"}, nil, "src/a/b.js", true},
		{"prefix/** rejects other dirs", []string{"src/**"}, nil, "lib/a.js", false},
		{"exclude takes precedence", []string{"**/*.js"}, []string{"vendor/**"}, "vendor/dep/file.js", false},
		{"non-matching exclude allows", []string{"**/*.js"}, []string{"vendor/**"}, "src/main.js", true},
		{"multiple ** segments", []string{"src/**/test/**/*.js"}, nil, "src/a/test/b/c.js", true},
		{"multiple ** segments reject", []string{"src/**/test/**/*.js"}, nil, "src/a/b/c.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewGlobMatcher(tt.includes, tt.excludes)
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestIgnoreRules_Base(t *testing.T) {
	rules := newIgnoreRules(BaseIgnore)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{".git", true, true},
		{"node_modules", true, true},
		{"pkg/node_modules", true, true},
		{"dist", true, true},
		{"coverage", true, true},
		{"debug.log", false, true},
		{"logs/app.log", false, true},
		{".DS_Store", false, true},
		{".env", false, true},
		{".env.local", false, true},
		{".envrc", false, false},
		{"src/distance.js", false, false},
		{"index.js", false, false},
		{"src", true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.ignored(tt.path, tt.isDir), "ignored(%q)", tt.path)
	}
}

// TestIgnoreRules_Scoped verifies nested ignore files apply relative to
// their own directory only.
func TestIgnoreRules_Scoped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "web"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# comment\n*.tmp\nbuild/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "web", ".ignore"), []byte("/generated.js\n"), 0o644))

	rootRules, err := newIgnoreRules(BaseIgnore).child(root, "")
	require.NoError(t, err)
	webRules, err := rootRules.child(filepath.Join(root, "web"), "web")
	require.NoError(t, err)

	assert.True(t, rootRules.ignored("a.tmp", false))
	assert.True(t, rootRules.ignored("build", true))
	assert.False(t, rootRules.ignored("build", false), "directory-only pattern must not match a file")
	assert.False(t, rootRules.ignored("generated.js", false))

	assert.True(t, webRules.ignored("web/generated.js", false))
	assert.False(t, webRules.ignored("web/sub/generated.js", false), "anchored pattern matches only at its level")
	assert.True(t, webRules.ignored("web/x.tmp", false), "parent rules still apply")
	assert.False(t, webRules.ignored("generated.js", false))
}

func TestIgnoreRules_ChildWithoutFiles(t *testing.T) {
	base := newIgnoreRules(BaseIgnore)
	got, err := base.child(t.TempDir(), "")
	require.NoError(t, err)
	assert.Same(t, base, got)
}
