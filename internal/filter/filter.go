// Copyright (c) 2026 locksmith contributors
//
// File: filter.go
// Brief: Frame filter: exact-match and glob-pattern suppression of backtrace frames
//
// License: BSD-3-Clause

// Package filter implements the frame filter: deciding whether a captured
// backtrace matches a user-supplied ignore list of exact frame symbols or
// glob patterns.
//
// Grounded on the teacher's own use of path/filepath.Match for glob-style
// matching (toolchain/cleanup.go); no third-party glob library appears
// anywhere in the retrieval pack, and filepath.Match's shell-glob syntax is
// exactly the fnmatch-style matching this needs, so the standard library is
// the idiomatic choice here rather than an unnecessary dependency. The
// exact-match list itself is backed by the teacher's utils/types.Set,
// adapted into internal/types.
package filter

import (
	"path/filepath"

	"locksmith/internal/types"
)

// Filter holds an exact-match set and a glob-pattern list, loaded once at
// bootstrap from configuration (the ignored_frames and
// ignored_frame_patterns settings).
type Filter struct {
	exact    types.Set[string]
	patterns []string
}

// New builds a Filter from a colon-split exact list and a colon-split
// pattern list (the caller is responsible for the colon-splitting itself;
// see the config package).
func New(exactFrames, patterns []string) *Filter {
	f := &Filter{exact: types.NewSet[string]()}
	for _, s := range exactFrames {
		if s != "" {
			f.exact.Add(s)
		}
	}
	for _, p := range patterns {
		if p != "" {
			f.patterns = append(f.patterns, p)
		}
	}
	return f
}

// Matches reports whether any frame in the backtrace is an exact
// suppression or matches a glob pattern. An empty Filter (or a nil one)
// never matches anything.
func (f *Filter) Matches(framesInBacktrace []string) bool {
	if f == nil {
		return false
	}
	for _, frame := range framesInBacktrace {
		if f.exact.Contains(frame) {
			return true
		}
		for _, p := range f.patterns {
			if ok, _ := filepath.Match(p, frame); ok {
				return true
			}
		}
	}
	return false
}
