// Copyright (c) 2026 locksmith contributors
//
// File: log.go
// Brief: Verifier's own operational logger, distinct from the diagnostic sink
//
// License: BSD-3-Clause

// Package obslog is the verifier's own operational logger, distinct from
// the diagnostic sink, which reports user lock-discipline violations.
// This is what the verifier uses to log things about itself: bootstrap
// progress, a filter configuration that failed to parse, and so on.
//
// Grounded on the teacher's utils/log/logging.go: package-level
// Info/Infof/Warnf/Errorf functions gated by a process-wide quiet flag,
// built on the standard log package rather than a third-party logger.
package obslog

import "log"

var quiet bool

// SetQuiet suppresses Info/Infof output (errors and warnings still print).
func SetQuiet(q bool) {
	quiet = q
}

// Info logs an informational line.
func Info(v ...any) {
	if quiet {
		return
	}
	log.Println(v...)
}

// Infof logs a formatted informational line.
func Infof(format string, v ...any) {
	if quiet {
		return
	}
	log.Printf(format, v...)
}

// Warnf logs a formatted warning; never suppressed by SetQuiet.
func Warnf(format string, v ...any) {
	log.Printf("warning: "+format, v...)
}

// Errorf logs a formatted error; never suppressed by SetQuiet.
func Errorf(format string, v ...any) {
	log.Printf("error: "+format, v...)
}
