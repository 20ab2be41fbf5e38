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
	"path"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// BaseIgnore is always applied, before any ignore file.
var BaseIgnore = []string{
	".git",
	"node_modules",
	"dist",
	"*.log",
	".DS_Store",
	"coverage",
	".env",
	".env.*",
}

// IgnoreFileNames are read in every directory, in this order.
var IgnoreFileNames = []string{".ignore", ".gitignore"}

// ignoreRules is the stack of ignore files in effect for one directory.
//
// Each level holds the patterns of one directory, matched against paths
// relative to that directory. A path is ignored when any level matches it.
// Negated patterns ("!x") only cancel matches from the same level.
type ignoreRules struct {
	levels []ignoreLevel
}

type ignoreLevel struct {
	dir     string // slash path relative to root; "" for the root
	matcher *gitignore.GitIgnore
}

func newIgnoreRules(base []string) *ignoreRules {
	return &ignoreRules{levels: []ignoreLevel{{matcher: gitignore.CompileIgnoreLines(base...)}}}
}

// child returns the rules for dir, adding the patterns of any ignore files
// found in absDir. The receiver is not modified.
func (r *ignoreRules) child(absDir, dir string) (*ignoreRules, error) {
	var lines []string
	for _, name := range IgnoreFileNames {
		data, err := os.ReadFile(filepath.Join(absDir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return r, err
		}
		lines = append(lines, strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
	}
	if len(lines) == 0 {
		return r, nil
	}
	levels := make([]ignoreLevel, len(r.levels), len(r.levels)+1)
	copy(levels, r.levels)
	levels = append(levels, ignoreLevel{dir: dir, matcher: gitignore.CompileIgnoreLines(lines...)})
	return &ignoreRules{levels: levels}, nil
}

// ignored reports whether rel (slash path relative to root) is ignored.
// Directory-only patterns ("build/") are checked with a trailing slash.
func (r *ignoreRules) ignored(rel string, isDir bool) bool {
	for _, lvl := range r.levels {
		p := rel
		if lvl.dir != "" {
			var ok bool
			p, ok = strings.CutPrefix(rel, lvl.dir+"/")
			if !ok {
				continue
			}
		}
		if lvl.matcher.MatchesPath(p) {
			return true
		}
		if isDir && lvl.matcher.MatchesPath(p+"/") {
			return true
		}
	}
	return false
}

// =============================================================================
// Include / exclude globs
// =============================================================================

// GlobMatcher provides file path matching against include/exclude patterns.
//
// Patterns use glob syntax with ** for recursive matching:
//   - * matches any sequence of non-separator characters
//   - ** matches any sequence of characters including separators
//   - ? matches any single non-separator character
//   - [abc] matches one of the characters in brackets
//
// Thread Safety: GlobMatcher is safe for concurrent use after creation.
type GlobMatcher struct {
	includes []string
	excludes []string
}

// NewGlobMatcher creates a matcher with the given include and exclude patterns.
//
// If includes is empty, all files are included.
func NewGlobMatcher(includes, excludes []string) *GlobMatcher {
	return &GlobMatcher{includes: includes, excludes: excludes}
}

// Match returns true if the path should be included.
//
// A path is included if it matches at least one include pattern (or
// includes is empty) and no exclude pattern.
func (m *GlobMatcher) Match(p string) bool {
	p = filepath.ToSlash(p)
	if m.Excluded(p) {
		return false
	}
	if len(m.includes) == 0 {
		return true
	}
	for _, pattern := range m.includes {
		if matchGlob(pattern, p) {
			return true
		}
	}
	return false
}

// Excluded reports whether p matches an exclude pattern. Used for directories.
func (m *GlobMatcher) Excluded(p string) bool {
	for _, pattern := range m.excludes {
		if matchGlob(pattern, p) || matchGlob(pattern, p+"/") {
			return true
		}
	}
	return false
}

// matchGlob matches a slash path against a glob pattern. Patterns without **
// also match the base name alone.
func matchGlob(pattern, p string) bool {
	if strings.Contains(pattern, "**") {
		return matchDoublestar(pattern, p)
	}
	if matched, _ := path.Match(pattern, p); matched {
		return true
	}
	matched, _ := path.Match(pattern, path.Base(p))
	return matched
}

// matchDoublestar handles "prefix/**/suffix" patterns.
func matchDoublestar(pattern, p string) bool {
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" {
		if p != prefix && !strings.HasPrefix(p, prefix+"/") {
			return false
		}
		p = strings.TrimPrefix(strings.TrimPrefix(p, prefix), "/")
	}
	if suffix == "" {
		return true
	}
	if strings.Contains(suffix, "**") {
		segs := strings.Split(p, "/")
		for i := range segs {
			if matchDoublestar(suffix, strings.Join(segs[i:], "/")) {
				return true
			}
		}
		return false
	}

	// Any trailing run of segments may match the suffix.
	segs := strings.Split(p, "/")
	for i := range segs {
		if matched, _ := path.Match(suffix, strings.Join(segs[i:], "/")); matched {
			return true
		}
	}
	return false
}
