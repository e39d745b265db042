// Copyright (c) 2026 locksmith contributors
//
// File: ledger.go
// Brief: Per-lock holder ledger: LIFO (thread, backtrace) attribution list
//
// License: BSD-3-Clause

// Package holders implements the per-lock holder ledger: a LIFO list of
// (thread, backtrace) pairs appended on acquire and removed on release.
// LIFO removal is what makes recursive locks correct: the innermost
// acquire is always the pair of the next release.
package holders

// Entry is one (thread, backtrace) attribution, live between a successful
// acquire and the matching release.
type Entry struct {
	ThreadName string
	Backtrace  []string
}

// Ledger is the LIFO holder list of a single lock record.
type Ledger struct {
	entries []Entry
}

// Push records a new holder at the head of the LIFO order, which is the
// end of the underlying slice (see Entries: most-recent-last).
func (l *Ledger) Push(e Entry) {
	l.entries = append(l.entries, e)
}

// PopForThread removes the head-most entry attributed to threadName, if
// any, and reports whether one was found. Searching from the head (rather
// than requiring an exact-index match) is what makes this correct for
// recursive locks: the most recent hold by this thread is necessarily the
// one this release pairs with.
func (l *Ledger) PopForThread(threadName string) (Entry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ThreadName == threadName {
			e := l.entries[i]
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return e, true
		}
	}
	return Entry{}, false
}

// Empty reports whether the ledger currently has no live holders.
func (l *Ledger) Empty() bool {
	return len(l.entries) == 0
}

// Len returns the number of live holder entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns the live holders, most-recent-last. The caller must not
// mutate the returned slice.
func (l *Ledger) Entries() []Entry {
	return l.entries
}
