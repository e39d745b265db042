// Copyright (c) 2026 locksmith contributors
//
// File: sink.go
// Brief: Diagnostic sink collaborator and its concrete delivery targets
//
// License: BSD-3-Clause

// Package sink implements the diagnostic sink collaborator: an out-of-
// scope external component that formats and delivers diagnostics,
// together with the concrete targets Locksmith selects among via
// LKSMITH_LOG: stderr, stdout, syslog, a file, or a user-registered
// callback.
//
// Grounded on the teacher's results package (results/results/results.go),
// which renders diagnostics to readable/machine text and writes them out,
// and on its leveled logging package (utils/log/logging.go) for the
// stderr/stdout default's tone.
package sink

import (
	"fmt"
	"os"
	"sync"

	"locksmith/internal/diagnostics"
)

// Sink is the interface the verifier reports diagnostics through. The
// verifier never holds any of its own locks while calling a Sink; a Sink
// is responsible for its own thread-safety.
type Sink interface {
	Emit(d diagnostics.Diagnostic)
}

// WriterSink writes each diagnostic as one String()-formatted block to an
// io.Writer, guarded by its own mutex since multiple threads may emit
// concurrently.
type WriterSink struct {
	mu sync.Mutex
	w  interface{ Write([]byte) (int, error) }
}

// NewStderrSink returns a Sink that writes to os.Stderr.
func NewStderrSink() *WriterSink { return &WriterSink{w: os.Stderr} }

// NewStdoutSink returns a Sink that writes to os.Stdout.
func NewStdoutSink() *WriterSink { return &WriterSink{w: os.Stdout} }

// Emit implements Sink.
func (s *WriterSink) Emit(d diagnostics.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, d.String())
}

// FileSink appends each diagnostic to a file, opened once at construction
// (LKSMITH_LOG=file://PATH).
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileSink opens path for appending (creating it if necessary).
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f}, nil
}

// Emit implements Sink.
func (s *FileSink) Emit(d diagnostics.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.f, d.String())
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}

// CallbackFunc is the signature a registered callback sink invokes:
// (code, message), mirroring the convention of invoking a function at a
// fixed address with signature (code:int, msg:string). Locksmith is pure
// Go, so there is no raw function-pointer address to call through.
// CallbackSink wraps a Go func value directly instead of resolving
// callback://0xADDR against process memory.
type CallbackFunc func(code int, msg string)

// CallbackSink invokes a registered Go function for every diagnostic.
type CallbackSink struct {
	fn CallbackFunc
}

// NewCallbackSink wraps fn as a Sink.
func NewCallbackSink(fn CallbackFunc) *CallbackSink {
	return &CallbackSink{fn: fn}
}

// Emit implements Sink.
func (s *CallbackSink) Emit(d diagnostics.Diagnostic) {
	s.fn(int(d.Code), d.String())
}

// MultiSink fans a diagnostic out to every wrapped Sink; used when more
// than one target is configured.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit implements Sink.
func (m *MultiSink) Emit(d diagnostics.Diagnostic) {
	for _, s := range m.sinks {
		s.Emit(d)
	}
}

// CollectorSink records every diagnostic in memory. Used by tests, and by
// a user embedding Locksmith who wants to inspect diagnostics
// programmatically rather than through a log-shaped sink.
type CollectorSink struct {
	mu          sync.Mutex
	Diagnostics []diagnostics.Diagnostic
}

// Emit implements Sink.
func (c *CollectorSink) Emit(d diagnostics.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Diagnostics = append(c.Diagnostics, d)
}

// All returns a snapshot of every diagnostic collected so far.
func (c *CollectorSink) All() []diagnostics.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]diagnostics.Diagnostic, len(c.Diagnostics))
	copy(out, c.Diagnostics)
	return out
}
