// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace loads a directory into a file snapshot and writes edited
// snapshots back to disk.
//
// # Description
//
// Load walks a project directory, skipping a fixed base ignore set and any
// patterns found in .gitignore or .ignore files, and reads the remaining
// files concurrently. Write applies a patch.Report to the directory.
//
// All paths are validated to stay inside the project root.
//
// # Thread Safety
//
// Loader is safe for concurrent use.
package workspace

import (
	"errors"
	"fmt"
)

// Sentinel errors for workspace operations.
var (
	// ErrPathTraversal is returned when a path escapes the project root.
	ErrPathTraversal = errors.New("path escapes project root")

	// ErrFileTooLarge is returned when a file exceeds the loader's size limit.
	ErrFileTooLarge = errors.New("file too large to load")

	// ErrInvalidRoot is returned when the project root path is invalid.
	ErrInvalidRoot = errors.New("invalid project root")

	// ErrMissingFile is returned by Write when a change names a file that is
	// not in the edited snapshot.
	ErrMissingFile = errors.New("changed file missing from snapshot")
)

// ScanError represents a non-fatal error during loading.
//
// When a file cannot be read (e.g., permission denied), it is recorded as a
// ScanError and loading continues.
type ScanError struct {
	// Path is the slash-separated path relative to the root.
	Path string `json:"path"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e ScanError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e ScanError) Unwrap() error {
	return e.Err
}
