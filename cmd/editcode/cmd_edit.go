// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/editcode/pkg/ux"
	"github.com/AleutianAI/editcode/services/editcode"
	"github.com/AleutianAI/editcode/services/editcode/format"
	"github.com/AleutianAI/editcode/services/editcode/patch"
	"github.com/AleutianAI/editcode/services/editcode/workspace"
)

var errNoPrompt = errors.New("no instruction given: pass -p or positional words")

// instruction returns the -p flag, or the positional args joined by spaces.
func instruction(flag string, args []string) (string, error) {
	p := strings.TrimSpace(flag)
	if p == "" {
		p = strings.TrimSpace(strings.Join(args, " "))
	}
	if p == "" {
		return "", errNoPrompt
	}
	return p, nil
}

func runEditCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	prompt, err := instruction(editPrompt, args)
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Close()
	cfg := s.cfg

	editor, err := newEditor(cfg, s.apiKey, s.logger, nil)
	if err != nil {
		return err
	}

	ws, err := workspace.Load(ctx, editDir,
		workspace.WithIncludes(cfg.Edit.Include...),
		workspace.WithExcludes(cfg.Edit.Exclude...),
		workspace.WithMaxFileSize(cfg.Edit.MaxFileSize),
		workspace.WithLogger(s.logger))
	if err != nil {
		return err
	}
	for _, se := range ws.Errors {
		s.printer.Warning(se.Error())
	}

	s.printer.Title(fmt.Sprintf("Editing %d files in %s", ws.Files.Len(), ws.Root))
	s.printer.Muted(formatLine(cfg.Model.Name, format.EditFormat(cfg.Edit.Format)))

	res, err := editor.Edit(ctx, editcode.Request{
		Prompt: prompt,
		Files:  ws.Files,
		Format: format.EditFormat(cfg.Edit.Format),
		APIKey: s.apiKey,
	})
	if err != nil {
		reportEditError(s.printer, err)
		return err
	}

	if res.ParseMiss {
		s.printer.Warning("the model answered without any edit blocks; nothing changed")
	}
	if res.MetadataErr != nil {
		s.printer.Warning(fmt.Sprintf("cost accounting unavailable: %v", res.MetadataErr))
	}

	if editDryRun {
		s.printer.Report(res.Changes, true)
		s.printer.Muted("dry run: nothing written")
	} else {
		report, err := workspace.Write(ws.Root, ws.Files, res.Files)
		if err != nil {
			return err
		}
		s.printer.Report(report, editShowDiff)
	}

	printUsage(s.printer, res)
	return nil
}

// formatNames lists the supported edit formats for help text.
func formatNames() string {
	names := make([]string, 0, len(format.Formats()))
	for _, f := range format.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func formatLine(model string, f format.EditFormat) string {
	line := fmt.Sprintf("model %s, format %s", model, f)
	if !f.SupportsCreateDelete() {
		line += " (updates existing files only)"
	}
	return line
}

// reportEditError prints a friendly explanation for apply failures.
func reportEditError(p *ux.Printer, err error) {
	var ae *patch.ApplyError
	if !errors.As(err, &ae) {
		return
	}
	title := fmt.Sprintf("Edit %d for %s did not apply", ae.Index+1, ae.FileName)
	body := err.Error()
	if ae.Hint != "" {
		body += "\n" + ae.Hint
	}
	p.ErrorBox(title, body)
}

func printUsage(p *ux.Printer, res *editcode.Result) {
	parts := []string{}
	if res.Model != "" {
		parts = append(parts, res.Model)
	}
	if res.InputTokens > 0 || res.OutputTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d in / %d out tokens", res.InputTokens, res.OutputTokens))
	}
	if res.CostCents > 0 {
		parts = append(parts, fmt.Sprintf("%.4f¢", res.CostCents))
	}
	if len(parts) > 0 {
		p.Muted(strings.Join(parts, ", "))
	}
}
