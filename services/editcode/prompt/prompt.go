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
	"path"
	"strings"

	"github.com/AleutianAI/editcode/services/editcode/format"
)

// TemplateVersion identifies the prompt layout. Bump it whenever section
// headings or formatting instructions change so results stay comparable.
const TemplateVersion = 1

// Section headings.
const (
	TaskHeading         = "## Your Task"
	FilesHeading        = "## Original Files"
	InstructionsHeading = "## Formatting Instructions"
	ImagesHeading       = "## Image Files"
)

// Request holds everything Assemble needs.
type Request struct {
	// Task is the user's instruction.
	Task string

	// Context is the output of BuildContext.
	Context Context

	// Format selects the formatting instructions. Empty means format.DefaultFormat.
	Format format.EditFormat
}

// Assemble produces the full prompt.
//
// # Description
//
// Sections appear in fixed order, separated by a blank line:
//
//  1. ## Your Task
//  2. ## Original Files
//  3. ## Formatting Instructions
//  4. ## Image Files (only when the snapshot has images)
func Assemble(req Request) string {
	f := req.Format
	if f == "" {
		f = format.DefaultFormat
	}

	sections := []string{
		TaskHeading + "\n\n" + req.Task,
		FilesHeading + "\n\n" + SerializeFiles(req.Context.Files),
		InstructionsHeading + "\n\n" + Instructions(f),
	}
	if len(req.Context.Images) > 0 {
		sections = append(sections, imageManifest(req.Context.Images))
	}
	return strings.Join(sections, "\n\n")
}

// SerializeFiles renders files as bold names followed by fenced blocks, the
// same layout the whole format expects back.
func SerializeFiles(fs []ContextFile) string {
	blocks := make([]string, 0, len(fs))
	for _, f := range fs {
		var sb strings.Builder
		sb.WriteString("**")
		sb.WriteString(f.Name)
		sb.WriteString("**\n\n```")
		sb.WriteString(Language(f.Name))
		sb.WriteString("\n")
		sb.WriteString(f.Text)
		sb.WriteString("\n```")
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n")
}

// Language maps a file name to a fence info string. Unknown extensions use
// the bare extension; names without one get an empty string.
func Language(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch ext {
	case "js", "mjs", "cjs":
		return "js"
	case "ts", "mts":
		return "ts"
	case "jsx":
		return "jsx"
	case "tsx":
		return "tsx"
	case "py":
		return "python"
	case "go":
		return "go"
	case "md":
		return "markdown"
	case "yml":
		return "yaml"
	case "sh":
		return "bash"
	case "htm":
		return "html"
	}
	return ext
}

func imageManifest(images []string) string {
	var sb strings.Builder
	sb.WriteString(ImagesHeading)
	sb.WriteString("\n\nThese image files are part of the project. Their contents are not shown, but you may reference them by name:\n")
	for _, name := range images {
		sb.WriteString("\n- ")
		sb.WriteString(name)
	}
	return sb.String()
}
