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
	"errors"
	"fmt"
)

// Sentinel errors for patch application.
var (
	// ErrFileNotFound is returned when an operation names a file that is not
	// in the working copy.
	ErrFileNotFound = errors.New("file not found")

	// ErrSearchNotFound is returned when the search text (or a hunk's
	// original text) does not occur verbatim in the target file.
	ErrSearchNotFound = errors.New("search text not found")
)

// OperationKind says which operation family produced an ApplyError.
type OperationKind string

const (
	// KindDiff is a search/replace operation (diff or diff-fenced).
	KindDiff OperationKind = "diff"

	// KindHunk is a unified diff hunk.
	KindHunk OperationKind = "hunk"
)

// ApplyError reports the operation that aborted an apply call.
//
// Use errors.Is with ErrFileNotFound or ErrSearchNotFound to classify it.
type ApplyError struct {
	// Index is the zero-based position of the failing operation.
	Index int `json:"index"`

	// FileName is the operation's target name.
	FileName string `json:"file_name"`

	// Kind is the operation family.
	Kind OperationKind `json:"kind"`

	// Hint describes the closest existing line when the search text was not
	// found. Empty otherwise.
	Hint string `json:"hint,omitempty"`

	// Err is ErrFileNotFound or ErrSearchNotFound.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	switch {
	case errors.Is(e.Err, ErrFileNotFound):
		return fmt.Sprintf("file not found: %s", e.FileName)
	case e.Kind == KindHunk:
		return fmt.Sprintf("original content for hunk not found in file: %s", e.FileName)
	default:
		return fmt.Sprintf("search block not found in file: %s", e.FileName)
	}
}

// Unwrap returns the sentinel for errors.Is support.
func (e *ApplyError) Unwrap() error {
	return e.Err
}
