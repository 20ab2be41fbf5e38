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

// ParseWhole extracts "**name**" + fenced block pairs.
//
// # Description
//
// A name line is a line whose trimmed form is wrapped in "**"; backticks
// around the name are stripped. Blank lines may separate the name from the
// opening fence. Content is taken verbatim up to the matching closing fence
// (or the end of the text if the model never closed it) and joined with
// "\n". An empty block yields an empty Text, which the applier treats as a
// delete.
//
// # Outputs
//
//   - []WholeFileEntry: Entries in appearance order. Duplicates are kept;
//     see CollapseWhole.
func ParseWhole(text string) []WholeFileEntry {
	lines := splitLines(text)
	var out []WholeFileEntry

	for i := 0; i < len(lines); i++ {
		name, ok := boldName(lines[i])
		if !ok {
			continue
		}

		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) {
			break
		}
		fence, ok := fenceOpen(lines[j])
		if !ok {
			continue
		}

		end := j + 1
		for end < len(lines) && !fenceClose(lines[end], fence) {
			end++
		}
		out = append(out, WholeFileEntry{
			Name: name,
			Text: strings.Join(lines[j+1:end], "\n"),
		})
		i = end
	}
	return out
}

// CollapseWhole keeps the last entry per name, ordered by each name's first
// appearance.
func CollapseWhole(entries []WholeFileEntry) []WholeFileEntry {
	pos := make(map[string]int, len(entries))
	var out []WholeFileEntry
	for _, e := range entries {
		if i, ok := pos[e.Name]; ok {
			out[i] = e
			continue
		}
		pos[e.Name] = len(out)
		out = append(out, e)
	}
	return out
}

// boldName matches "**name**" and returns the cleaned name.
func boldName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) <= 4 || !strings.HasPrefix(trimmed, "**") || !strings.HasSuffix(trimmed, "**") {
		return "", false
	}
	name := cleanName(trimmed)
	if name == "" || strings.Contains(name, "**") {
		return "", false
	}
	return name, true
}
