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

// ParseUdiff extracts unified diff hunks.
//
// # Description
//
// A file block starts at a "--- name" line immediately followed by
// "+++ name". Header names are normalised: trailing tab-separated timestamps
// are dropped, and a matching "a/" + "b/" prefix pair is removed. Blocks
// whose two names still differ (renames, /dev/null creations) are skipped.
//
// The block body is split into hunks on "@@ ... @@" lines; line numbers in
// the header are ignored. For each hunk:
//
//   - " x" (or a line without a prefix) is context and goes to both sides
//   - "-x" goes to Original only
//   - "+x" goes to Updated only
//   - "\ No newline at end of file" is ignored
//
// Trailing empty context lines of a hunk are dropped. A block ends at the
// next header pair, a line starting with a fence, or the end of text.
func ParseUdiff(text string) []UdiffHunk {
	lines := splitLines(text)
	var out []UdiffHunk

	i := 0
	for i < len(lines) {
		if !isUdiffHeader(lines, i) {
			i++
			continue
		}
		from := headerName(lines[i][4:])
		to := headerName(lines[i+1][4:])
		from, to = stripABPrefix(from, to)

		end := i + 2
		for end < len(lines) && !isUdiffHeader(lines, end) && !strings.HasPrefix(lines[end], "```") {
			end++
		}
		if from != "" && from == to {
			out = append(out, parseHunks(from, lines[i+2:end])...)
		}
		i = end
	}
	return out
}

func isUdiffHeader(lines []string, i int) bool {
	return i+1 < len(lines) &&
		strings.HasPrefix(lines[i], "--- ") &&
		strings.HasPrefix(lines[i+1], "+++ ")
}

// headerName drops a trailing "\t<timestamp>" and surrounding space.
func headerName(s string) string {
	if tab := strings.IndexByte(s, '\t'); tab >= 0 {
		s = s[:tab]
	}
	return strings.TrimSpace(s)
}

func stripABPrefix(from, to string) (string, string) {
	if strings.HasPrefix(from, "a/") && strings.HasPrefix(to, "b/") {
		return from[2:], to[2:]
	}
	return from, to
}

// isHunkHeader matches "@@ ... @@" at column zero. Context lines start with
// a space, so content beginning with "@@" never splits a hunk.
func isHunkHeader(line string) bool {
	return strings.HasPrefix(line, "@@") && strings.Contains(line[2:], "@@")
}

type hunkLine struct {
	op   byte // ' ', '-', '+'
	text string
	raw  string
}

func parseHunks(name string, body []string) []UdiffHunk {
	var (
		out     []UdiffHunk
		current []hunkLine
		open    bool
	)

	flush := func() {
		if !open {
			return
		}
		for len(current) > 0 {
			last := current[len(current)-1]
			if last.op != ' ' || last.raw != "" {
				break
			}
			current = current[:len(current)-1]
		}
		if len(current) > 0 {
			out = append(out, buildHunk(name, current))
		}
		current = nil
	}

	for _, line := range body {
		if isHunkHeader(line) {
			flush()
			open = true
			continue
		}
		if !open {
			continue
		}
		switch {
		case strings.HasPrefix(line, "\\"):
		case strings.HasPrefix(line, "+"):
			current = append(current, hunkLine{op: '+', text: line[1:], raw: line})
		case strings.HasPrefix(line, "-"):
			current = append(current, hunkLine{op: '-', text: line[1:], raw: line})
		default:
			current = append(current, hunkLine{op: ' ', text: strings.TrimPrefix(line, " "), raw: line})
		}
	}
	flush()
	return out
}

func buildHunk(name string, lines []hunkLine) UdiffHunk {
	var original, updated []string
	for _, l := range lines {
		switch l.op {
		case '-':
			original = append(original, l.text)
		case '+':
			updated = append(updated, l.text)
		default:
			original = append(original, l.text)
			updated = append(updated, l.text)
		}
	}
	return UdiffHunk{
		FileName: name,
		Original: strings.Join(original, "\n"),
		Updated:  strings.Join(updated, "\n"),
	}
}
