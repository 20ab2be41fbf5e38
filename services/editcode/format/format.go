// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format extracts edit operations from free-text model responses.
//
// # Description
//
// A model is instructed to answer in one of four edit formats:
//
//   - whole: "**name**" followed by a fenced block holding the entire file
//   - diff: a filename line, then a fenced SEARCH/REPLACE block
//   - diff-fenced: same markers, filename as the first line inside the fence
//   - udiff: "--- name" / "+++ name" headers followed by "@@ ... @@" hunks
//
// Each parser scans the response top to bottom and returns operations in
// appearance order. Parsers never fail: text with no recognisable block
// yields an empty result (a parse miss), which callers treat as "no changes".
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package format

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

// ErrUnknownEditFormat indicates an edit format outside the supported set.
var ErrUnknownEditFormat = errors.New("unknown edit format")

// =============================================================================
// Edit Format
// =============================================================================

// EditFormat selects the textual convention the model answers in.
type EditFormat string

const (
	// FormatWhole asks for complete file bodies. Supports create, update and delete.
	FormatWhole EditFormat = "whole"

	// FormatDiff asks for SEARCH/REPLACE blocks after a bare filename line.
	FormatDiff EditFormat = "diff"

	// FormatDiffFenced asks for SEARCH/REPLACE blocks with the filename inside the fence.
	FormatDiffFenced EditFormat = "diff-fenced"

	// FormatUdiff asks for unified diff hunks.
	FormatUdiff EditFormat = "udiff"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatWhole

// Formats lists every supported format.
func Formats() []EditFormat {
	return []EditFormat{FormatWhole, FormatDiff, FormatDiffFenced, FormatUdiff}
}

// String returns the format name.
func (f EditFormat) String() string {
	return string(f)
}

// Valid reports whether f is a supported format.
func (f EditFormat) Valid() bool {
	switch f {
	case FormatWhole, FormatDiff, FormatDiffFenced, FormatUdiff:
		return true
	}
	return false
}

// SupportsCreateDelete reports whether the format can create or delete
// files. Only the whole format can; the others are update-only.
func (f EditFormat) SupportsCreateDelete() bool {
	return f == FormatWhole
}

// ParseEditFormat resolves a format name. The empty string selects DefaultFormat.
func ParseEditFormat(s string) (EditFormat, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultFormat, nil
	}
	f := EditFormat(strings.TrimSpace(s))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEditFormat, s)
	}
	return f, nil
}

// =============================================================================
// Operations
// =============================================================================

// WholeFileEntry is a complete replacement body for one file.
type WholeFileEntry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Diff is one search/replace operation.
type Diff struct {
	FileName string `json:"file_name"`
	Search   string `json:"search"`
	Replace  string `json:"replace"`
}

// UdiffHunk is one unified diff hunk reconstructed into before/after text.
type UdiffHunk struct {
	FileName string `json:"file_name"`
	Original string `json:"original"`
	Updated  string `json:"updated"`
}

// Operations is the parse result for one response.
//
// Exactly one of the slices is populated, matching Format.
type Operations struct {
	Format EditFormat
	Whole  []WholeFileEntry
	Diffs  []Diff
	Hunks  []UdiffHunk
}

// Len returns the number of parsed operations.
func (o Operations) Len() int {
	return len(o.Whole) + len(o.Diffs) + len(o.Hunks)
}

// Empty reports a parse miss: no recognisable block was found.
func (o Operations) Empty() bool {
	return o.Len() == 0
}

// FileNames returns the distinct target names in first-appearance order.
func (o Operations) FileNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, e := range o.Whole {
		add(e.Name)
	}
	for _, d := range o.Diffs {
		add(d.FileName)
	}
	for _, h := range o.Hunks {
		add(h.FileName)
	}
	return names
}

// Parse runs the parser for format over text.
//
// # Outputs
//
//   - Operations: Parsed operations; Empty() on a parse miss.
//   - error: ErrUnknownEditFormat only. Malformed text is never an error.
func Parse(f EditFormat, text string) (Operations, error) {
	ops := Operations{Format: f}
	switch f {
	case FormatWhole:
		ops.Whole = ParseWhole(text)
	case FormatDiff:
		ops.Diffs = ParseDiff(text)
	case FormatDiffFenced:
		ops.Diffs = ParseDiffFenced(text)
	case FormatUdiff:
		ops.Hunks = ParseUdiff(text)
	default:
		return Operations{}, fmt.Errorf("%w: %q", ErrUnknownEditFormat, string(f))
	}
	return ops, nil
}
