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
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// hintLineLimit bounds the number of file lines compared.
const hintLineLimit = 5000

// closestLine finds the line of text nearest, by Levenshtein distance, to the
// first non-blank line of search. Returns "" when either side has nothing to
// compare.
func closestLine(text, search string) string {
	needle := firstNonBlank(search)
	if needle == "" {
		return ""
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 50 * time.Millisecond

	bestLine, bestText, bestDist := -1, "", 0
	for i, line := range strings.Split(text, "\n") {
		if i >= hintLineLimit {
			break
		}
		candidate := strings.TrimSpace(line)
		if candidate == "" {
			continue
		}
		dist := dmp.DiffLevenshtein(dmp.DiffMain(needle, candidate, false))
		if bestLine < 0 || dist < bestDist {
			bestLine, bestText, bestDist = i, candidate, dist
		}
		if dist == 0 {
			break
		}
	}
	if bestLine < 0 {
		return ""
	}
	return fmt.Sprintf("closest match at line %d (distance %d): %q", bestLine+1, bestDist, bestText)
}

func firstNonBlank(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}
