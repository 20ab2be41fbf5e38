// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors for metadata retrieval.
var (
	// ErrMetadataExhausted is returned when every attempt failed.
	ErrMetadataExhausted = errors.New("metadata fetch exhausted")

	// ErrMetadataCanceled is returned when the context ended while fetching.
	// The error also wraps the context's error.
	ErrMetadataCanceled = errors.New("metadata fetch canceled")

	// ErrInvalidResponse is returned when a successful response cannot be
	// decoded. It is not retried.
	ErrInvalidResponse = errors.New("invalid metadata response")
)

// ExhaustedError carries the last failure seen before giving up.
type ExhaustedError struct {
	// Attempts is the number of requests made.
	Attempts int

	// LastStatus is the HTTP status of the last attempt, or 0 when the last
	// attempt failed before a response arrived.
	LastStatus int

	// LastBody is the (truncated) body of the last failed response.
	LastBody string
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v: status %d after %d attempts", ErrMetadataExhausted, e.LastStatus, e.Attempts)
}

// Unwrap returns ErrMetadataExhausted for errors.Is support.
func (e *ExhaustedError) Unwrap() error {
	return ErrMetadataExhausted
}
