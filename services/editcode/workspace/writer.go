// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/editcode/services/editcode/files"
	"github.com/AleutianAI/editcode/services/editcode/patch"
)

const (
	defaultFileMode os.FileMode = 0o644
	defaultDirMode  os.FileMode = 0o755
)

// Write applies the difference between before and after to root.
//
// Description:
//
//	Created and updated files are written, creating parent directories as
//	needed. Deleted files are removed. Every path is validated before
//	anything is touched, so a traversal attempt leaves root unchanged.
//	Symlinks along a target path are resolved and must stay inside root.
//	Existing files keep their permission bits.
//
// Inputs:
//
//	root - The project root the snapshots were loaded from.
//	before - The snapshot as loaded.
//	after - The edited snapshot.
//
// Outputs:
//
//	patch.Report - The changes that were written.
//	error - ErrPathTraversal, or the first filesystem error.
func Write(root string, before, after files.Snapshot) (patch.Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return patch.Report{}, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	realRoot, err := resolveExisting(absRoot)
	if err != nil {
		return patch.Report{}, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}

	report := patch.Summarize(before, after)

	targets := make([]string, len(report.Changes))
	for i, c := range report.Changes {
		abs, err := validatePath(absRoot, c.Name)
		if err != nil {
			return patch.Report{}, err
		}
		// Removing a symlink removes the link, so only its directory matters.
		check := abs
		if c.Kind == patch.ChangeDeleted {
			check = filepath.Dir(abs)
		}
		if err := confine(realRoot, check, c.Name); err != nil {
			return patch.Report{}, err
		}
		targets[i] = abs
	}

	for i, c := range report.Changes {
		switch c.Kind {
		case patch.ChangeDeleted:
			if err := os.Remove(targets[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return report, fmt.Errorf("remove %s: %w", c.Name, err)
			}
		default:
			f, ok := after.Get(c.ID)
			if !ok {
				return report, fmt.Errorf("%w: %s", ErrMissingFile, c.Name)
			}
			if err := writeFile(targets[i], f.Text); err != nil {
				return report, fmt.Errorf("write %s: %w", c.Name, err)
			}
		}
	}
	return report, nil
}

func writeFile(abs, text string) error {
	mode := defaultFileMode
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(abs), defaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(abs, []byte(text), mode)
}

// confine returns ErrPathTraversal when abs, after resolving symlinks on
// its existing part, lies outside realRoot.
func confine(realRoot, abs, name string) error {
	resolved, err := resolveExisting(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathTraversal, name, err)
	}
	r, err := filepath.Rel(realRoot, resolved)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathTraversal, err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s resolves outside root", ErrPathTraversal, name)
	}
	return nil
}

// resolveExisting evaluates symlinks on the deepest existing ancestor of
// abs and appends the missing remainder unchanged. A dangling link is an
// error.
func resolveExisting(abs string) (string, error) {
	cur, rest := abs, ""
	for {
		_, err := os.Lstat(cur)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
	resolved, err := filepath.EvalSymlinks(cur)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolved, rest), nil
}
