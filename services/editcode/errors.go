// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editcode

import "errors"

// Sentinel errors for the edit service.
var (
	// ErrInvalidRequest is returned when a Request fails validation.
	ErrInvalidRequest = errors.New("invalid edit request")

	// ErrNilModel is returned by NewEditor when no model is supplied.
	ErrNilModel = errors.New("editor requires a model")

	// ErrModelFailed wraps any error from the model call. The underlying
	// error stays reachable through errors.Is and errors.As.
	ErrModelFailed = errors.New("model invocation failed")
)
