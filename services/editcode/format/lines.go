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

// splitLines normalises CRLF/CR to LF and splits on "\n".
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// fenceOpen reports whether line opens a fenced code block and returns the
// backtick run that must close it. "```js" opens with "```".
func fenceOpen(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	return trimmed[:n], true
}

// fenceClose reports whether line closes a block opened with fence.
func fenceClose(line, fence string) bool {
	return strings.TrimSpace(line) == fence
}

// isFence reports whether line opens or closes any fence.
func isFence(line string) bool {
	_, ok := fenceOpen(line)
	return ok
}

// markerLine reports whether line is exactly marker, ignoring trailing
// whitespace.
func markerLine(line, marker string) bool {
	return strings.TrimRight(line, " \t") == marker
}

// cleanName strips decoration a model commonly wraps around a file name:
// surrounding bold markers and backticks.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "**")
	s = strings.TrimSuffix(s, "**")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
