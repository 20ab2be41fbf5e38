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

import "strings"

// SEARCH/REPLACE markers. Each must sit alone on its line.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	DividerMarker = "======="
	ReplaceMarker = ">>>>>>> REPLACE"
)

// ParseDiff extracts SEARCH/REPLACE blocks introduced by a bare filename line.
//
// # Description
//
// Layout:
//
//	path/to/file.js
//	```js
//	<<<<<<< SEARCH
//	old
//	=======
//	new
//	>>>>>>> REPLACE
//	```
//
// The filename line must be immediately followed by the opening fence, and
// the fence by the SEARCH marker. One fence may hold several SEARCH/REPLACE
// pairs for the same file. Unterminated pairs are dropped.
func ParseDiff(text string) []Diff {
	lines := splitLines(text)
	var out []Diff

	for i := 0; i+2 < len(lines); i++ {
		name := filenameLine(lines[i])
		if name == "" {
			continue
		}
		fence, ok := fenceOpen(lines[i+1])
		if !ok || !markerLine(lines[i+2], SearchMarker) {
			continue
		}
		diffs, end := readSearchReplace(lines, i+2, name, fence)
		if len(diffs) == 0 {
			continue
		}
		out = append(out, diffs...)
		i = end
	}
	return out
}

// ParseDiffFenced extracts SEARCH/REPLACE blocks whose filename is the first
// line inside the fence.
//
//	```js
//	path/to/file.js
//	<<<<<<< SEARCH
//	...
//	>>>>>>> REPLACE
//	```
func ParseDiffFenced(text string) []Diff {
	lines := splitLines(text)
	var out []Diff

	for i := 0; i+2 < len(lines); i++ {
		fence, ok := fenceOpen(lines[i])
		if !ok {
			continue
		}
		name := filenameLine(lines[i+1])
		if name == "" || !markerLine(lines[i+2], SearchMarker) {
			continue
		}
		diffs, end := readSearchReplace(lines, i+2, name, fence)
		if len(diffs) == 0 {
			continue
		}
		out = append(out, diffs...)
		i = end
	}
	return out
}

// readSearchReplace reads consecutive SEARCH/REPLACE pairs starting at
// lines[start], which must be a SEARCH marker. It returns the pairs read and
// the index of the last consumed line (the closing fence when present).
func readSearchReplace(lines []string, start int, name, fence string) ([]Diff, int) {
	var out []Diff
	i := start
	last := start

	for i < len(lines) && markerLine(lines[i], SearchMarker) {
		div := indexOf(lines, i+1, DividerMarker)
		if div < 0 {
			break
		}
		rep := indexOf(lines, div+1, ReplaceMarker)
		if rep < 0 {
			break
		}
		out = append(out, Diff{
			FileName: name,
			Search:   strings.Join(lines[i+1:div], "\n"),
			Replace:  strings.Join(lines[div+1:rep], "\n"),
		})
		last = rep

		i = rep + 1
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
	}

	if len(out) > 0 && i < len(lines) && fenceClose(lines[i], fence) {
		last = i
	}
	return out, last
}

// indexOf finds the next line equal to marker at or after from, or -1.
// A new SEARCH marker before the target aborts the scan.
func indexOf(lines []string, from int, marker string) int {
	for k := from; k < len(lines); k++ {
		if markerLine(lines[k], marker) {
			return k
		}
		if marker != SearchMarker && markerLine(lines[k], SearchMarker) {
			return -1
		}
	}
	return -1
}

// filenameLine returns the cleaned filename on line, or "" when line cannot
// be a filename (blank, a fence or a marker).
func filenameLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || isFence(trimmed) {
		return ""
	}
	switch {
	case markerLine(trimmed, SearchMarker),
		markerLine(trimmed, DividerMarker),
		markerLine(trimmed, ReplaceMarker):
		return ""
	}
	return cleanName(trimmed)
}
