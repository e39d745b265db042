//go:build !unix

// Copyright (c) 2026 locksmith contributors
//
// File: syslog_other.go
// Brief: Syslog sink target stub, non-unix builds
//
// License: BSD-3-Clause

package sink

import (
	"errors"

	"locksmith/internal/diagnostics"
)

// SyslogSink is unavailable on non-unix platforms; log/syslog itself only
// builds on unix.
type SyslogSink struct{}

// NewSyslogSink always fails on a non-unix platform.
func NewSyslogSink(tag string) (*SyslogSink, error) {
	return nil, errors.New("sink: syslog is not available on this platform")
}

// Emit implements Sink as a no-op; NewSyslogSink never returns a usable
// instance, so this is unreachable in practice.
func (s *SyslogSink) Emit(_ diagnostics.Diagnostic) {}
