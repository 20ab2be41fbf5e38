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
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/editcode/pkg/logging"
	"github.com/AleutianAI/editcode/services/editcode/files"
)

const (
	// DefaultMaxFileSize is the largest file Load reads (10MB).
	DefaultMaxFileSize int64 = 10 << 20

	// DefaultConcurrency bounds concurrent file reads.
	DefaultConcurrency = 16
)

// LoaderOption is a functional option for configuring Loader.
type LoaderOption func(*Loader)

// Loader reads project directories into snapshots.
//
// Thread Safety: Loader is safe for concurrent use.
type Loader struct {
	matcher     *GlobMatcher
	baseIgnore  []string
	maxFileSize int64
	concurrency int
	ids         files.IDAllocator
	logger      *logging.Logger
}

// NewLoader creates a Loader with the given options.
//
// Default configuration:
//   - includes: all files
//   - excludes: none beyond BaseIgnore and ignore files
//   - maxFileSize: DefaultMaxFileSize
//   - concurrency: DefaultConcurrency
//   - ids: files.UUIDAllocator
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		baseIgnore:  BaseIgnore,
		maxFileSize: DefaultMaxFileSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.matcher == nil {
		l.matcher = NewGlobMatcher(nil, nil)
	}
	if l.ids == nil {
		l.ids = files.UUIDAllocator{}
	}
	if l.concurrency <= 0 {
		l.concurrency = DefaultConcurrency
	}
	l.logger = logging.OrNop(l.logger)
	return l
}

// WithIncludes restricts loading to paths matching one of patterns.
func WithIncludes(patterns ...string) LoaderOption {
	return func(l *Loader) {
		if l.matcher == nil {
			l.matcher = NewGlobMatcher(patterns, nil)
		} else {
			l.matcher = NewGlobMatcher(patterns, l.matcher.excludes)
		}
	}
}

// WithExcludes skips paths matching any of patterns.
func WithExcludes(patterns ...string) LoaderOption {
	return func(l *Loader) {
		if l.matcher == nil {
			l.matcher = NewGlobMatcher(nil, patterns)
		} else {
			l.matcher = NewGlobMatcher(l.matcher.includes, patterns)
		}
	}
}

// WithBaseIgnore replaces BaseIgnore.
func WithBaseIgnore(patterns ...string) LoaderOption {
	return func(l *Loader) {
		l.baseIgnore = patterns
	}
}

// WithMaxFileSize sets the maximum file size. Zero disables the limit.
func WithMaxFileSize(bytes int64) LoaderOption {
	return func(l *Loader) {
		l.maxFileSize = bytes
	}
}

// WithConcurrency bounds concurrent file reads.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) {
		l.concurrency = n
	}
}

// WithIDAllocator sets the allocator for file ids.
func WithIDAllocator(ids files.IDAllocator) LoaderOption {
	return func(l *Loader) {
		l.ids = ids
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Workspace is a loaded project directory.
type Workspace struct {
	// Root is the absolute project root.
	Root string

	// Files holds every loaded file, named by slash path relative to Root.
	Files files.Snapshot

	// Errors lists files that could not be loaded.
	Errors []ScanError
}

// Load is shorthand for NewLoader(opts...).Load(ctx, root).
func Load(ctx context.Context, root string, opts ...LoaderOption) (*Workspace, error) {
	return NewLoader(opts...).Load(ctx, root)
}

// Load walks root and reads every file that is not ignored.
//
// Description:
//
//	Directories are walked depth-first. In each directory the .ignore and
//	.gitignore files are read and their patterns apply to that directory
//	and everything below it. Files are then read concurrently. Symlinks
//	are skipped. Files larger than the size limit or that cannot be read
//	are recorded in Workspace.Errors.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	root - Path to the project root directory.
//
// Outputs:
//
//	*Workspace - The loaded files.
//	error - ErrInvalidRoot, or ctx.Err() if cancelled.
func (l *Loader) Load(ctx context.Context, root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	ws := &Workspace{Root: absRoot}
	var paths []string
	if err := l.walk(ctx, absRoot, "", newIgnoreRules(l.baseIgnore), &paths, ws); err != nil {
		return nil, err
	}
	sort.Strings(paths)

	texts, readErrs, err := l.readAll(ctx, absRoot, paths)
	if err != nil {
		return nil, err
	}
	ws.Errors = append(ws.Errors, readErrs...)

	b := files.Snapshot{}.Edit(l.ids)
	for _, p := range paths {
		text, ok := texts[p]
		if !ok {
			continue
		}
		if _, err := b.Add(p, text); err != nil {
			ws.Errors = append(ws.Errors, ScanError{Path: p, Err: err})
		}
	}
	ws.Files = b.Snapshot()

	sort.Slice(ws.Errors, func(i, j int) bool { return ws.Errors[i].Path < ws.Errors[j].Path })
	l.logger.Debug("workspace loaded",
		"root", absRoot,
		"files", ws.Files.Len(),
		"errors", len(ws.Errors))
	return ws, nil
}

// walk collects the relative paths of loadable files under dir.
func (l *Loader) walk(ctx context.Context, absRoot, dir string, parent *ignoreRules, out *[]string, ws *Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absDir := filepath.Join(absRoot, filepath.FromSlash(dir))
	rules, err := parent.child(absDir, dir)
	if err != nil {
		ws.Errors = append(ws.Errors, ScanError{Path: dir, Err: err})
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		ws.Errors = append(ws.Errors, ScanError{Path: dir, Err: err})
		return nil
	}

	for _, entry := range entries {
		rel := path.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			if rules.ignored(rel, true) || l.matcher.Excluded(rel) {
				continue
			}
			if err := l.walk(ctx, absRoot, rel, rules, out, ws); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() || rules.ignored(rel, false) || !l.matcher.Match(rel) {
			continue
		}
		*out = append(*out, rel)
	}
	return nil
}

// readAll reads paths concurrently. Per-file failures are returned as
// ScanErrors; only cancellation aborts.
func (l *Loader) readAll(ctx context.Context, absRoot string, paths []string) (map[string]string, []ScanError, error) {
	var (
		mu    sync.Mutex
		texts = make(map[string]string, len(paths))
		errs  []ScanError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := l.readFile(absRoot, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, ScanError{Path: p, Err: err})
				return nil
			}
			texts[p] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return texts, errs, nil
}

func (l *Loader) readFile(absRoot, rel string) (string, error) {
	full := filepath.Join(absRoot, filepath.FromSlash(rel))
	if l.maxFileSize > 0 {
		info, err := os.Stat(full)
		if err != nil {
			return "", err
		}
		if info.Size() > l.maxFileSize {
			return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
		}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// validatePath ensures a slash path relative to root stays inside root.
//
// Returns ErrPathTraversal if the path escapes the root.
func validatePath(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q is not a relative path", ErrPathTraversal, rel)
	}
	abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	r, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPathTraversal, err)
	}
	if r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes root", ErrPathTraversal, rel)
	}
	return abs, nil
}
