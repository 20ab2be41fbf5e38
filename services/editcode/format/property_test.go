// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package format

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func fileNameGen() gopter.Gen {
	return gen.Identifier().Map(func(s string) string { return s + ".js" })
}

// TestParseWhole_RendersBack_Property verifies that any body written in the
// whole layout is recovered verbatim.
func TestParseWhole_RendersBack_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("whole block body is recovered verbatim", prop.ForAll(
		func(name string, body []string) bool {
			text := strings.Join(body, "\n")
			resp := "Sure.\n\n**" + name + "**\n```js\n" + text + "\n```\n"
			got := ParseWhole(resp)
			return len(got) == 1 && got[0].Name == name && got[0].Text == text
		},
		fileNameGen(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestParseDiff_RendersBack_Property verifies search and replace text survive
// both diff layouts.
func TestParseDiff_RendersBack_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("diff and diff-fenced recover search/replace", prop.ForAll(
		func(name string, search, replace []string) bool {
			s := strings.Join(search, "\n")
			r := strings.Join(replace, "\n")
			block := SearchMarker + "\n" + s + "\n" + DividerMarker + "\n" + r + "\n" + ReplaceMarker

			want := Diff{FileName: name, Search: s, Replace: r}

			diff := ParseDiff(name + "\n```\n" + block + "\n```")
			fenced := ParseDiffFenced("```\n" + name + "\n" + block + "\n```")
			return len(diff) == 1 && diff[0] == want &&
				len(fenced) == 1 && fenced[0] == want
		},
		fileNameGen(),
		gen.SliceOfN(3, gen.AlphaString()),
		gen.SliceOfN(3, gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestParseUdiff_Reconstruction_Property verifies Original holds context and
// removed lines while Updated holds context and added lines.
func TestParseUdiff_Reconstruction_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("hunk sides rebuild from prefixes", prop.ForAll(
		func(name string, before, removed, added, after []string) bool {
			var body []string
			for _, l := range before {
				body = append(body, " "+l)
			}
			for _, l := range removed {
				body = append(body, "-"+l)
			}
			for _, l := range added {
				body = append(body, "+"+l)
			}
			for _, l := range after {
				body = append(body, " "+l)
			}
			if len(body) == 0 {
				return true
			}
			resp := "--- " + name + "\n+++ " + name + "\n@@ -1 +1 @@\n" + strings.Join(body, "\n")

			join := func(parts ...[]string) string {
				var all []string
				for _, p := range parts {
					all = append(all, p...)
				}
				return strings.Join(all, "\n")
			}

			got := ParseUdiff(resp)
			return len(got) == 1 &&
				got[0].FileName == name &&
				got[0].Original == join(before, removed, after) &&
				got[0].Updated == join(before, added, after)
		},
		fileNameGen(),
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
