// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package files defines the in-memory file snapshot that edits are applied to.
//
// # Description
//
// A Snapshot maps opaque FileIDs to File records (name + text). Names are the
// matching key for every edit operation, so a snapshot never holds two ids
// with the same name.
//
// # Ownership
//
// Snapshot values are immutable. The only way to derive a changed snapshot
// is through a Builder, which owns a private copy of the file map. The
// snapshot a Builder was created from remains valid and unchanged.
//
// # Thread Safety
//
// Snapshots are safe for concurrent reads. Builders are not safe for
// concurrent use.
package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrDuplicateName indicates two ids map to the same file name.
	ErrDuplicateName = errors.New("duplicate file name")

	// ErrUnknownID indicates a Builder operation referenced a missing id.
	ErrUnknownID = errors.New("unknown file id")
)

// =============================================================================
// Types
// =============================================================================

// FileID is an opaque, snapshot-unique file identifier.
type FileID string

// File is one named text file.
type File struct {
	// Name is the path-like file name, e.g. "src/index.js".
	Name string `json:"name"`

	// Text is the full file content.
	Text string `json:"text"`
}

// Snapshot is an immutable set of files keyed by id.
//
// The zero value is an empty snapshot.
type Snapshot struct {
	files  map[FileID]File
	byName map[string]FileID
}

// New builds a Snapshot from m. The map is copied.
//
// # Outputs
//
//   - Snapshot: The new snapshot.
//   - error: ErrDuplicateName if two ids share a name.
func New(m map[FileID]File) (Snapshot, error) {
	s := Snapshot{
		files:  make(map[FileID]File, len(m)),
		byName: make(map[string]FileID, len(m)),
	}
	for _, id := range sortedIDs(m) {
		f := m[id]
		if other, ok := s.byName[f.Name]; ok {
			return Snapshot{}, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateName, f.Name, other, id)
		}
		s.files[id] = f
		s.byName[f.Name] = id
	}
	return s, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(m map[FileID]File) Snapshot {
	s, err := New(m)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of files.
func (s Snapshot) Len() int {
	return len(s.files)
}

// Get returns the file stored under id.
func (s Snapshot) Get(id FileID) (File, bool) {
	f, ok := s.files[id]
	return f, ok
}

// Lookup finds a file by exact name.
func (s Snapshot) Lookup(name string) (FileID, File, bool) {
	id, ok := s.byName[name]
	if !ok {
		return "", File{}, false
	}
	return id, s.files[id], true
}

// IDs returns all ids in ascending order.
func (s Snapshot) IDs() []FileID {
	return sortedIDs(s.files)
}

// Names returns all file names in ascending order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.files))
	for _, f := range s.files {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the underlying id → file map.
func (s Snapshot) Map() map[FileID]File {
	out := make(map[FileID]File, len(s.files))
	for id, f := range s.files {
		out[id] = f
	}
	return out
}

// Equal reports whether both snapshots hold the same ids with the same files.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.files) != len(other.files) {
		return false
	}
	for id, f := range s.files {
		if o, ok := other.files[id]; !ok || o != f {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the interchange shape {"<id>": {"name", "text"}}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	m := s.files
	if m == nil {
		m = map[FileID]File{}
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the interchange shape and enforces unique names.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var m map[FileID]File
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	snap, err := New(m)
	if err != nil {
		return err
	}
	*s = snap
	return nil
}

// Edit starts a Builder over a private copy of s.
//
// A nil allocator selects UUIDAllocator.
func (s Snapshot) Edit(alloc IDAllocator) *Builder {
	if alloc == nil {
		alloc = UUIDAllocator{}
	}
	b := &Builder{
		files:  make(map[FileID]File, len(s.files)),
		byName: make(map[string]FileID, len(s.files)),
		alloc:  alloc,
	}
	for id, f := range s.files {
		b.files[id] = f
		b.byName[f.Name] = id
	}
	return b
}

func sortedIDs(m map[FileID]File) []FileID {
	ids := make([]FileID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
