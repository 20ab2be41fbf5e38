// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patch

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/editcode/services/editcode/files"
)

// DevNull is the placeholder path for the missing side of a create or delete.
const DevNull = "/dev/null"

// summaryContext is the number of context lines around each change.
const summaryContext = 3

// ChangeKind classifies a file-level change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes how one file differs between two snapshots.
type Change struct {
	ID   files.FileID `json:"id"`
	Name string       `json:"name"`
	Kind ChangeKind   `json:"kind"`

	// Patch is a unified diff of the file.
	Patch string `json:"patch"`

	// Added and Removed count changed lines.
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Report lists the changes between two snapshots.
type Report struct {
	Changes []Change `json:"changes"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
}

// Empty reports whether the snapshots were identical.
func (r Report) Empty() bool {
	return len(r.Changes) == 0
}

// Count returns the number of changes of kind k.
func (r Report) Count(k ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Summarize compares two snapshots by file id.
//
// # Description
//
// Ids only in after are created files, ids only in before are deleted
// files, and ids in both with different text are updated files. Each change
// carries a unified patch (go-difflib) whose line counts are read back with
// go-diff. Changes are sorted by name.
func Summarize(before, after files.Snapshot) Report {
	var changes []Change

	for _, id := range before.IDs() {
		old, _ := before.Get(id)
		cur, ok := after.Get(id)
		switch {
		case !ok:
			changes = append(changes, newChange(id, old.Name, ChangeDeleted, old.Name, DevNull, old.Text, ""))
		case cur.Text != old.Text:
			changes = append(changes, newChange(id, cur.Name, ChangeUpdated, old.Name, cur.Name, old.Text, cur.Text))
		}
	}
	for _, id := range after.IDs() {
		if _, ok := before.Get(id); ok {
			continue
		}
		cur, _ := after.Get(id)
		changes = append(changes, newChange(id, cur.Name, ChangeCreated, DevNull, cur.Name, "", cur.Text))
	}

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })

	r := Report{Changes: changes}
	for _, c := range changes {
		r.Added += c.Added
		r.Removed += c.Removed
	}
	return r
}

func newChange(id files.FileID, name string, kind ChangeKind, fromFile, toFile, a, b string) Change {
	p := unifiedPatch(fromFile, toFile, a, b)
	added, removed := lineStats(p)
	return Change{
		ID:      id,
		Name:    name,
		Kind:    kind,
		Patch:   p,
		Added:   added,
		Removed: removed,
	}
}

func unifiedPatch(fromFile, toFile, a, b string) string {
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(a),
		B:        splitLinesKeepNL(b),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  summaryContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

// lineStats parses a single-file unified diff and counts changed lines.
func lineStats(p string) (added, removed int) {
	if p == "" {
		return 0, 0
	}
	fd, err := diff.ParseFileDiff([]byte(p))
	if err != nil {
		return 0, 0
	}
	st := fd.Stat()
	return int(st.Added + st.Changed), int(st.Deleted + st.Changed)
}

// splitLinesKeepNL splits s into lines that each end in "\n". A missing
// final newline is added so every diff line stays on its own line.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if last := lines[len(lines)-1]; last == "" {
		lines = lines[:len(lines)-1]
	} else if !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}
