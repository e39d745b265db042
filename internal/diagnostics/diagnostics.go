// Copyright (c) 2026 locksmith contributors
//
// File: diagnostics.go
// Brief: Diagnostic failure taxonomy, severity and shim status codes
//
// License: BSD-3-Clause

// Package diagnostics defines the verifier's failure taxonomy.
//
// A Diagnostic is the richer, internal counterpart of the numeric Status
// the shim boundary sees: the shim only ever observes a Status (an integer
// error-convention code, per the native threading API's own contract), while
// the sink receives the full Diagnostic with its code, severity and message.
package diagnostics

import "fmt"

// Code identifies one member of the verifier's fixed failure taxonomy.
type Code int

// The eight diagnostic codes, numbered per the taxonomy.
const (
	LockInversion Code = iota + 1
	SelfDeadlock
	NotHeld
	DestroyInUse
	CondWaitUnheld
	SpinHoldingSleeper
	OutOfMemory
	Internal
)

// Severity classifies how serious a Diagnostic is.
type Severity int

// Severity levels, from least to most actionable.
const (
	Warning Severity = iota
	Error
)

var codeNames = map[Code]string{
	LockInversion:      "LockInversion",
	SelfDeadlock:       "SelfDeadlock",
	NotHeld:            "NotHeld",
	DestroyInUse:       "DestroyInUse",
	CondWaitUnheld:     "CondWaitUnheld",
	SpinHoldingSleeper: "SpinHoldingSleeper",
	OutOfMemory:        "OutOfMemory",
	Internal:           "Internal",
}

// String returns the taxonomy name of the code, e.g. "LockInversion".
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Severity returns the fixed severity for the code.
func (c Code) Severity() Severity {
	if c == SpinHoldingSleeper {
		return Warning
	}
	return Error
}

// Status is the integer propagated back across the interposition boundary.
// The shim maps Status to the native threading API's own error convention.
type Status int

// Status values. Only WarningOnly lets the shim proceed to call the native
// primitive after a non-zero status; every other non-zero status tells the
// shim to skip the native call and return the status as-is.
const (
	StatusOK         Status = 0
	StatusWarnOnly   Status = 1
	StatusBusy       Status = 2
	StatusPermission Status = 3
)

// statusFor maps a diagnostic code to the Status returned by the pre-hook
// that raised it. LockInversion, SelfDeadlock, SpinHoldingSleeper,
// OutOfMemory and Internal never block the underlying call: the operation
// still proceeds, so they all resolve to StatusWarnOnly, the one status
// value that does not tell the shim to skip the native call.
var statusFor = map[Code]Status{
	LockInversion:      StatusWarnOnly,
	SelfDeadlock:       StatusWarnOnly,
	NotHeld:            StatusPermission,
	DestroyInUse:       StatusBusy,
	CondWaitUnheld:     StatusPermission,
	SpinHoldingSleeper: StatusWarnOnly,
	OutOfMemory:        StatusWarnOnly,
	Internal:           StatusWarnOnly,
}

// Status returns the Status a pre-hook should return when it raises this code.
func (c Code) Status() Status {
	if s, ok := statusFor[c]; ok {
		return s
	}
	return StatusWarnOnly
}

// Diagnostic is one emitted violation or condition report.
type Diagnostic struct {
	Code       Code
	Message    string
	Thread     string
	LockKey    uintptr
	Backtrace  []string
}

// String renders a human-readable line, the shape the stderr/stdout/file
// sinks print verbatim and the syslog/callback sinks derive their message
// from.
func (d Diagnostic) String() string {
	sev := "error"
	if d.Code.Severity() == Warning {
		sev = "warning"
	}
	s := fmt.Sprintf("[locksmith %s] %s: %s (thread=%s lock=%#x)",
		sev, d.Code, d.Message, d.Thread, d.LockKey)
	for _, f := range d.Backtrace {
		s += "\n\tat " + f
	}
	return s
}
