// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patch applies parsed edit operations to a file snapshot.
//
// # Description
//
// Whole-file entries can create, update and delete files. Search/replace
// diffs and unified diff hunks can only update existing files; they are
// applied strictly in order, each one seeing the result of the previous,
// and the first failure aborts the call with no snapshot.
//
// # Ownership
//
// The input snapshot is never modified. Every apply call works on a
// files.Builder and returns a new snapshot.
//
// # Thread Safety
//
// An Applier is safe for concurrent use as long as its IDAllocator is.
// The default UUID allocator is.
package patch

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/editcode/pkg/logging"
	"github.com/AleutianAI/editcode/services/editcode/files"
	"github.com/AleutianAI/editcode/services/editcode/format"
)

// Option configures an Applier.
type Option func(*Applier)

// WithIDAllocator sets the allocator used for created files.
func WithIDAllocator(ids files.IDAllocator) Option {
	return func(a *Applier) {
		a.ids = ids
	}
}

// WithLogger sets the logger. A nil logger is replaced by a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Applier) {
		a.logger = logging.OrNop(l)
	}
}

// Applier applies edit operations.
type Applier struct {
	ids    files.IDAllocator
	logger *logging.Logger
}

// NewApplier creates an Applier.
//
// Defaults: UUID ids, no-op logger.
func NewApplier(opts ...Option) *Applier {
	a := &Applier{
		ids:    files.UUIDAllocator{},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.ids == nil {
		a.ids = files.UUIDAllocator{}
	}
	return a
}

// ShouldDelete reports whether a whole-file body asks for deletion: an
// empty or whitespace-only body.
func ShouldDelete(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Apply dispatches on ops.Format.
//
// # Outputs
//
//   - files.Snapshot: The new snapshot.
//   - error: *ApplyError for diff/udiff failures, or format.ErrUnknownEditFormat.
func (a *Applier) Apply(snap files.Snapshot, ops format.Operations) (files.Snapshot, error) {
	switch ops.Format {
	case format.FormatWhole:
		return a.ApplyWhole(snap, ops.Whole), nil
	case format.FormatDiff, format.FormatDiffFenced:
		return a.ApplyDiffs(snap, ops.Diffs)
	case format.FormatUdiff:
		return a.ApplyUdiffs(snap, ops.Hunks)
	}
	return files.Snapshot{}, fmt.Errorf("%w: %q", format.ErrUnknownEditFormat, string(ops.Format))
}

// ApplyWhole merges whole-file entries into snap.
//
// # Description
//
// Entries are first collapsed to one per name (last wins). Then, per name:
//
//   - existing file, blank body: the file is deleted
//   - existing file, other body: the text is replaced, the id is kept
//   - new name, non-blank body: a file is created under a new id
//   - new name, blank body: ignored
//
// Files the response does not mention are carried over unchanged.
func (a *Applier) ApplyWhole(snap files.Snapshot, entries []format.WholeFileEntry) files.Snapshot {
	b := snap.Edit(a.ids)

	for _, e := range format.CollapseWhole(entries) {
		id, _, exists := b.LookupName(e.Name)
		switch {
		case exists && ShouldDelete(e.Text):
			b.Remove(id)
			a.logger.Debug("whole: deleted file", "file", e.Name, "id", string(id))
		case exists:
			if err := b.SetText(id, e.Text); err != nil {
				a.logger.Warn("whole: update failed", "file", e.Name, "error", err)
				continue
			}
			a.logger.Debug("whole: updated file", "file", e.Name, "id", string(id))
		case ShouldDelete(e.Text):
			a.logger.Debug("whole: ignoring empty body for unknown file", "file", e.Name)
		default:
			newID, err := b.Add(e.Name, e.Text)
			if err != nil {
				a.logger.Warn("whole: create failed", "file", e.Name, "error", err)
				continue
			}
			a.logger.Debug("whole: created file", "file", e.Name, "id", string(newID))
		}
	}
	return b.Snapshot()
}

// ApplyDiffs applies search/replace diffs in order.
//
// Each diff replaces the first occurrence of Search in the current text of
// its file. An empty Search matches at the start of the file.
func (a *Applier) ApplyDiffs(snap files.Snapshot, diffs []format.Diff) (files.Snapshot, error) {
	ops := make([]replacement, len(diffs))
	for i, d := range diffs {
		ops[i] = replacement{fileName: d.FileName, search: d.Search, replace: d.Replace}
	}
	return a.replaceAll(snap, KindDiff, ops)
}

// ApplyUdiffs applies unified diff hunks in order, using each hunk's
// Original as the search text and Updated as the replacement.
func (a *Applier) ApplyUdiffs(snap files.Snapshot, hunks []format.UdiffHunk) (files.Snapshot, error) {
	ops := make([]replacement, len(hunks))
	for i, h := range hunks {
		ops[i] = replacement{fileName: h.FileName, search: h.Original, replace: h.Updated}
	}
	return a.replaceAll(snap, KindHunk, ops)
}

type replacement struct {
	fileName string
	search   string
	replace  string
}

func (a *Applier) replaceAll(snap files.Snapshot, kind OperationKind, ops []replacement) (files.Snapshot, error) {
	b := snap.Edit(a.ids)

	for i, op := range ops {
		id, f, ok := b.LookupName(op.fileName)
		if !ok {
			a.logger.Debug("apply aborted: unknown file", "kind", string(kind), "index", i, "file", op.fileName)
			return files.Snapshot{}, &ApplyError{Index: i, FileName: op.fileName, Kind: kind, Err: ErrFileNotFound}
		}
		if !strings.Contains(f.Text, op.search) {
			hint := closestLine(f.Text, op.search)
			a.logger.Debug("apply aborted: search text missing",
				"kind", string(kind), "index", i, "file", op.fileName, "hint", hint)
			return files.Snapshot{}, &ApplyError{
				Index:    i,
				FileName: op.fileName,
				Kind:     kind,
				Hint:     hint,
				Err:      ErrSearchNotFound,
			}
		}
		if err := b.SetText(id, strings.Replace(f.Text, op.search, op.replace, 1)); err != nil {
			return files.Snapshot{}, fmt.Errorf("set text for %s: %w", op.fileName, err)
		}
	}
	return b.Snapshot(), nil
}
