// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the editcode CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/editcode/services/editcode/patch"
)

// Color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHunk   lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle: lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:     lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(ColorSlate),
	Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:  lipgloss.NewStyle().Foreground(ColorWarning),
	Error:    lipgloss.NewStyle().Foreground(ColorError),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),

	DiffAdd:    lipgloss.NewStyle().Foreground(ColorSuccess),
	DiffRemove: lipgloss.NewStyle().Foreground(ColorError),
	DiffHunk:   lipgloss.NewStyle().Foreground(ColorTealDeep),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconCreated Icon = "+"
	IconUpdated Icon = "~"
	IconDeleted Icon = "-"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess, IconCreated:
		return Styles.Success.Render(string(i))
	case IconWarning, IconUpdated:
		return Styles.Warning.Render(string(i))
	case IconError, IconDeleted:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// Level controls how rich the output is.
type Level string

const (
	// LevelFull uses colors, icons and boxes.
	LevelFull Level = "full"

	// LevelMinimal keeps icons but drops boxes and color on message text.
	LevelMinimal Level = "minimal"

	// LevelMachine prints tab-separated, prefix-tagged lines for scripts.
	LevelMachine Level = "machine"
)

// ParseLevel converts a string to a Level, defaulting to LevelFull.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "min", "quiet":
		return LevelMinimal
	case "machine", "json", "script":
		return LevelMachine
	default:
		return LevelFull
	}
}

// Printer writes styled CLI output.
//
// Normal output goes to out, warnings and errors to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	level  Level
}

// NewPrinter creates a printer that writes everything to w.
func NewPrinter(w io.Writer, level Level) *Printer {
	return &Printer{out: w, errOut: w, level: level}
}

// Stdout creates a printer on os.Stdout and os.Stderr.
//
// EDITCODE_OUTPUT overrides the level. Otherwise a non-terminal stdout
// gets LevelMachine.
func Stdout() *Printer {
	level := LevelFull
	if env := os.Getenv("EDITCODE_OUTPUT"); env != "" {
		level = ParseLevel(env)
	} else if !isTerminal(os.Stdout.Fd()) {
		level = LevelMachine
	}
	return &Printer{out: os.Stdout, errOut: os.Stderr, level: level}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Level returns the printer's output level.
func (p *Printer) Level() Level {
	return p.level
}

// Title prints a styled title
func (p *Printer) Title(text string) {
	if p.level == LevelMachine {
		return
	}
	fmt.Fprintln(p.out, Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func (p *Printer) Success(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.out, "OK: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), text)
	default:
		fmt.Fprintf(p.out, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

func (p *Printer) Warning(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.errOut, "WARN: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.errOut, "%s %s\n", IconWarning.Render(), text)
	default:
		fmt.Fprintf(p.errOut, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

func (p *Printer) Error(text string) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.errOut, "ERROR: %s\n", text)
	case LevelMinimal:
		fmt.Fprintf(p.errOut, "%s %s\n", IconError.Render(), text)
	default:
		fmt.Fprintf(p.errOut, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func (p *Printer) Info(text string) {
	if p.level == LevelMachine {
		fmt.Fprintln(p.out, text)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text. Machine output drops it.
func (p *Printer) Muted(text string) {
	if p.level == LevelMachine {
		return
	}
	fmt.Fprintln(p.out, Styles.Muted.Render(text))
}

// Box prints text in a rounded box
func (p *Printer) Box(title, content string) {
	if p.level != LevelFull {
		fmt.Fprintf(p.out, "%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(60)
	fmt.Fprintln(p.out, boxStyle.Render(Styles.Title.Render(title)+"\n"+content))
}

// ErrorBox prints an error with a hint underneath.
func (p *Printer) ErrorBox(title, content string) {
	if p.level != LevelFull {
		p.Error(title + ": " + content)
		return
	}
	boxStyle := Styles.ErrorBox.Width(60)
	fmt.Fprintln(p.errOut, boxStyle.Render(Styles.Error.Bold(true).Render(title)+"\n"+content))
}

// =============================================================================
// Change reports
// =============================================================================

func changeIcon(k patch.ChangeKind) Icon {
	switch k {
	case patch.ChangeCreated:
		return IconCreated
	case patch.ChangeDeleted:
		return IconDeleted
	default:
		return IconUpdated
	}
}

// FileChange prints one changed file with its line counts.
func (p *Printer) FileChange(c patch.Change) {
	switch p.level {
	case LevelMachine:
		fmt.Fprintf(p.out, "%s\t%s\t+%d\t-%d\n", c.Kind, c.Name, c.Added, c.Removed)
	case LevelMinimal:
		fmt.Fprintf(p.out, "%s %s\n", changeIcon(c.Kind).Render(), c.Name)
	default:
		counts := Styles.Success.Render(fmt.Sprintf("+%d", c.Added)) + " " +
			Styles.Error.Render(fmt.Sprintf("-%d", c.Removed))
		fmt.Fprintf(p.out, "%s %s %s\n", changeIcon(c.Kind).Render(), c.Name, Styles.Muted.Render("(")+counts+Styles.Muted.Render(")"))
	}
}

// Patch prints a unified diff, coloring added and removed lines.
func (p *Printer) Patch(text string) {
	if p.level == LevelMachine {
		fmt.Fprint(p.out, text)
		return
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			body = Styles.Bold.Render(body)
		case strings.HasPrefix(body, "@@"):
			body = Styles.DiffHunk.Render(body)
		case strings.HasPrefix(body, "+"):
			body = Styles.DiffAdd.Render(body)
		case strings.HasPrefix(body, "-"):
			body = Styles.DiffRemove.Render(body)
		}
		fmt.Fprintln(p.out, body)
	}
}

// Report prints every change in r, with patches when showPatches is set,
// followed by a summary line.
func (p *Printer) Report(r patch.Report, showPatches bool) {
	if r.Empty() {
		p.Muted("no changes")
		if p.level == LevelMachine {
			fmt.Fprintln(p.out, "SUMMARY: created=0 updated=0 deleted=0")
		}
		return
	}
	for _, c := range r.Changes {
		p.FileChange(c)
		if showPatches && c.Patch != "" {
			p.Patch(c.Patch)
		}
	}
	p.Summary(r)
}

// Summary prints a summary line with counts
func (p *Printer) Summary(r patch.Report) {
	created := r.Count(patch.ChangeCreated)
	updated := r.Count(patch.ChangeUpdated)
	deleted := r.Count(patch.ChangeDeleted)
	if p.level == LevelMachine {
		fmt.Fprintf(p.out, "SUMMARY: created=%d updated=%d deleted=%d\n", created, updated, deleted)
		return
	}
	fmt.Fprintf(p.out, "\n%s %s  %s %s  %s %s  %s\n",
		Styles.Success.Render(fmt.Sprintf("%d", created)), Styles.Muted.Render("created"),
		Styles.Warning.Render(fmt.Sprintf("%d", updated)), Styles.Muted.Render("updated"),
		Styles.Error.Render(fmt.Sprintf("%d", deleted)), Styles.Muted.Render("deleted"),
		Styles.Muted.Render(fmt.Sprintf("(+%d -%d lines)", r.Added, r.Removed)),
	)
}
