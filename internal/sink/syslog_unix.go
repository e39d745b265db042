//go:build unix

// Copyright (c) 2026 locksmith contributors
//
// File: syslog_unix.go
// Brief: Syslog sink target, unix builds
//
// License: BSD-3-Clause

package sink

import (
	"log/syslog"

	"locksmith/internal/diagnostics"
)

// SyslogSink writes diagnostics to the system log (LKSMITH_LOG=syslog),
// unix-only since log/syslog itself is unix-only.
type SyslogSink struct {
	w *syslog.Writer
}

// NewSyslogSink dials the local syslog daemon under the given tag.
func NewSyslogSink(tag string) (*SyslogSink, error) {
	w, err := syslog.New(syslog.LOG_WARNING|syslog.LOG_USER, tag)
	if err != nil {
		return nil, err
	}
	return &SyslogSink{w: w}, nil
}

// Emit implements Sink, routing by severity.
func (s *SyslogSink) Emit(d diagnostics.Diagnostic) {
	if d.Code.Severity() == diagnostics.Warning {
		s.w.Warning(d.String())
		return
	}
	s.w.Err(d.String())
}
