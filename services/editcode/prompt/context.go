// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompt turns a file snapshot into the instruction text sent to a
// model.
//
// # Description
//
// BuildContext selects and truncates the files shown to the model.
// Assemble joins the task, the serialized files and the per-format
// formatting instructions into one prompt.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package prompt

import (
	"path"
	"sort"
	"strings"

	"github.com/AleutianAI/editcode/services/editcode/files"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DataFileLineLimit is the line cap for .csv and .json files.
	DataFileLineLimit = 50

	// DefaultLineLimit is the line cap for every other text file.
	DefaultLineLimit = 500

	// MaxLineLength is the per-line cap, in characters.
	MaxLineLength = 200
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".svg":  true,
	".webp": true,
}

var dataExtensions = map[string]bool{
	".csv":  true,
	".json": true,
}

// =============================================================================
// Types
// =============================================================================

// Options overrides the truncation limits. Zero fields use the defaults.
type Options struct {
	DataFileLineLimit int
	DefaultLineLimit  int
	MaxLineLength     int
}

// DefaultOptions returns the standard truncation limits.
func DefaultOptions() Options {
	return Options{
		DataFileLineLimit: DataFileLineLimit,
		DefaultLineLimit:  DefaultLineLimit,
		MaxLineLength:     MaxLineLength,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DataFileLineLimit > 0 {
		d.DataFileLineLimit = o.DataFileLineLimit
	}
	if o.DefaultLineLimit > 0 {
		d.DefaultLineLimit = o.DefaultLineLimit
	}
	if o.MaxLineLength > 0 {
		d.MaxLineLength = o.MaxLineLength
	}
	return d
}

// ContextFile is one truncated file shown to the model.
type ContextFile struct {
	Name string
	Text string
}

// Context is what the model gets to see of a snapshot.
type Context struct {
	// Files holds non-image files ordered by name.
	Files []ContextFile

	// Images holds image file names ordered by name. Their content is never sent.
	Images []string
}

// =============================================================================
// Building
// =============================================================================

// BuildContext builds the prompt context with default limits.
func BuildContext(snap files.Snapshot) Context {
	return BuildContextWithOptions(snap, Options{})
}

// BuildContextWithOptions builds the prompt context.
//
// # Description
//
// Image files (by extension, case-insensitive) are listed by name only.
// Every other file is truncated to its line limit, then each retained line
// is cut to MaxLineLength characters. Never fails; an empty snapshot yields
// an empty Context.
func BuildContextWithOptions(snap files.Snapshot, opts Options) Context {
	opts = opts.withDefaults()

	var ctx Context
	for _, id := range snap.IDs() {
		f, _ := snap.Get(id)
		if IsImage(f.Name) {
			ctx.Images = append(ctx.Images, f.Name)
			continue
		}
		limit := opts.DefaultLineLimit
		if isDataFile(f.Name) {
			limit = opts.DataFileLineLimit
		}
		ctx.Files = append(ctx.Files, ContextFile{
			Name: f.Name,
			Text: truncate(f.Text, limit, opts.MaxLineLength),
		})
	}

	sort.Slice(ctx.Files, func(i, j int) bool { return ctx.Files[i].Name < ctx.Files[j].Name })
	sort.Strings(ctx.Images)
	return ctx
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// isDataFile matches the ".csv" / ".json" suffix exactly.
func isDataFile(name string) bool {
	return dataExtensions[path.Ext(name)]
}

func truncate(text string, maxLines, maxLineLen int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for i, l := range lines {
		if r := []rune(l); len(r) > maxLineLen {
			lines[i] = string(r[:maxLineLen])
		}
	}
	return strings.Join(lines, "\n")
}
