// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompt

import (
	"strings"

	"github.com/AleutianAI/editcode/services/editcode/format"
)

// WholeFileRule is the sentence that makes the whole format work. Tests and
// callers use it to tell the whole instructions apart from the others.
const WholeFileRule = "To suggest changes you MUST include the ENTIRE content of the updated file."

var wholeInstructions = strings.Join([]string{
	"Suggest changes to the original files using this exact format:",
	"**fileA.js**\n\n```js\n// Entire updated code for fileA\n```",
	"**fileB.js**\n\n```js\n// Entire updated code for fileB\n```",
	"Only include the files that need to be updated or created.",
	WholeFileRule,
	`NEVER leave out sections as in "... rest of the code remain the same ...".`,
	"Refactor large files into smaller files in the same directory.",
	"Delete all unused files, but we need to keep `README.md`. " +
		"Files can be deleted by setting their content to empty, for example:",
	"**fileToDelete.js**\n\n```\n```",
}, "\n\n")

const searchReplaceRules = "Every SEARCH section must EXACTLY match the existing file content, " +
	"character for character, including whitespace and comments.\n\n" +
	"Each block replaces only the first match, so include enough lines to make the SEARCH section unique.\n\n" +
	"Keep blocks small: use several blocks for several separate changes to the same file.\n\n" +
	"Only edit files that already exist. Do not try to create, rename or delete files."

var diffInstructions = strings.Join([]string{
	"Suggest changes to the original files using SEARCH/REPLACE blocks in this exact format:",
	"fileA.js\n```js\n" + format.SearchMarker + "\nconst x = 1;\n" + format.DividerMarker +
		"\nconst x = 2;\n" + format.ReplaceMarker + "\n```",
	"The file name goes on its own line, directly above the opening fence.",
	searchReplaceRules,
}, "\n\n")

var diffFencedInstructions = strings.Join([]string{
	"Suggest changes to the original files using SEARCH/REPLACE blocks in this exact format:",
	"```js\nfileA.js\n" + format.SearchMarker + "\nconst x = 1;\n" + format.DividerMarker +
		"\nconst x = 2;\n" + format.ReplaceMarker + "\n```",
	"The file name goes on the first line inside the fence.",
	searchReplaceRules,
}, "\n\n")

var udiffInstructions = strings.Join([]string{
	"Suggest changes to the original files as unified diffs in this exact format:",
	"```diff\n--- fileA.js\n+++ fileA.js\n@@ ... @@\n function greet() {\n-  return 'hi';\n+  return 'hello';\n }\n```",
	"Start each file with a `---` line and a `+++` line naming the same file.",
	"Start each hunk with a `@@ ... @@` line. Line numbers are not needed.",
	"Prefix removed lines with `-`, added lines with `+`, and unchanged context lines with a single space.",
	"Include enough unchanged context lines for each hunk to match exactly one place in the file.",
	"Only edit files that already exist. Do not try to create, rename or delete files.",
}, "\n\n")

// Instructions returns the formatting instructions for f. Unknown formats
// fall back to the whole format.
func Instructions(f format.EditFormat) string {
	switch f {
	case format.FormatDiff:
		return diffInstructions
	case format.FormatDiffFenced:
		return diffFencedInstructions
	case format.FormatUdiff:
		return udiffInstructions
	}
	return wholeInstructions
}
