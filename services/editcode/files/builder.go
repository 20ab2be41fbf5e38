// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package files

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// =============================================================================
// Builder
// =============================================================================

// Builder accumulates changes against a private copy of a Snapshot.
//
// Thread Safety: Not safe for concurrent use.
type Builder struct {
	files  map[FileID]File
	byName map[string]FileID
	alloc  IDAllocator
}

// LookupName finds a file in the working copy by exact name.
func (b *Builder) LookupName(name string) (FileID, File, bool) {
	id, ok := b.byName[name]
	if !ok {
		return "", File{}, false
	}
	return id, b.files[id], true
}

// SetText replaces the text of id, keeping its id and name.
func (b *Builder) SetText(id FileID, text string) error {
	f, ok := b.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	f.Text = text
	b.files[id] = f
	return nil
}

// Remove deletes id from the working copy. Missing ids are ignored.
func (b *Builder) Remove(id FileID) {
	f, ok := b.files[id]
	if !ok {
		return
	}
	delete(b.byName, f.Name)
	delete(b.files, id)
}

// Add inserts a new file under a freshly allocated id.
//
// # Outputs
//
//   - FileID: The allocated id.
//   - error: ErrDuplicateName if name is already present.
func (b *Builder) Add(name, text string) (FileID, error) {
	if other, ok := b.byName[name]; ok {
		return "", fmt.Errorf("%w: %q already used by %s", ErrDuplicateName, name, other)
	}
	id := b.alloc.NewID()
	for {
		if _, taken := b.files[id]; !taken {
			break
		}
		id = b.alloc.NewID()
	}
	b.files[id] = File{Name: name, Text: text}
	b.byName[name] = id
	return id, nil
}

// Snapshot freezes the working copy into a new Snapshot.
//
// The Builder may keep being used; later changes do not leak into the
// returned value.
func (b *Builder) Snapshot() Snapshot {
	s := Snapshot{
		files:  make(map[FileID]File, len(b.files)),
		byName: make(map[string]FileID, len(b.files)),
	}
	for id, f := range b.files {
		s.files[id] = f
		s.byName[f.Name] = id
	}
	return s
}

// =============================================================================
// ID Allocation
// =============================================================================

// IDAllocator hands out ids for newly created files.
type IDAllocator interface {
	NewID() FileID
}

// UUIDAllocator allocates random UUIDv4 ids. It carries no state.
type UUIDAllocator struct{}

// NewID returns a new random id.
func (UUIDAllocator) NewID() FileID {
	return FileID(uuid.NewString())
}

// SequentialAllocator allocates prefix1, prefix2, ... It is meant to be
// scoped to a single Builder or test; there is no shared counter.
type SequentialAllocator struct {
	prefix string
	next   int
}

// NewSequentialAllocator returns an allocator starting at prefix + "1".
func NewSequentialAllocator(prefix string) *SequentialAllocator {
	return &SequentialAllocator{prefix: prefix, next: 1}
}

// NewID returns the next id in sequence.
func (a *SequentialAllocator) NewID() FileID {
	id := FileID(a.prefix + strconv.Itoa(a.next))
	a.next++
	return id
}
