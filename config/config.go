// Copyright (c) 2026 locksmith contributors
//
// File: config.go
// Brief: Process-scoped configuration: sink selection and frame-filter lists
//
// License: BSD-3-Clause

// Package config parses the process-scoped configuration the verifier
// recognizes: the LKSMITH_LOG sink selector and the frame-filter
// suppression lists. Grounded on the teacher's utils/flags package, which
// populates typed package-level settings once; adapted here to read from
// the environment (as a preloaded verifier library would) rather than
// command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"locksmith/internal/sink"
)

// Env var names recognized by Load.
const (
	EnvLog                  = "LKSMITH_LOG"
	EnvIgnoredFrames        = "LKSMITH_IGNORED_FRAMES"
	EnvIgnoredFramePatterns = "LKSMITH_IGNORED_FRAME_PATTERNS"
)

// SinkTarget names which concrete sink LKSMITH_LOG selected.
type SinkTarget int

// The sink targets Load recognizes.
const (
	TargetStderr SinkTarget = iota
	TargetStdout
	TargetSyslog
	TargetFile
	TargetCallback
)

// SinkSpec is the parsed form of LKSMITH_LOG: a target plus whichever of
// Path (file://) or CallbackAddr (callback://) applies.
type SinkSpec struct {
	Target       SinkTarget
	Path         string // set for TargetFile
	CallbackAddr string // set for TargetCallback, e.g. "0xADDR"
}

// ParseSinkSpec parses the LKSMITH_LOG mini-grammar: "stderr", "stdout",
// "syslog", "file://PATH", or "callback://0xADDR". An empty string
// defaults to stderr.
func ParseSinkSpec(raw string) (SinkSpec, error) {
	switch {
	case raw == "" || raw == "stderr":
		return SinkSpec{Target: TargetStderr}, nil
	case raw == "stdout":
		return SinkSpec{Target: TargetStdout}, nil
	case raw == "syslog":
		return SinkSpec{Target: TargetSyslog}, nil
	case strings.HasPrefix(raw, "file://"):
		path := strings.TrimPrefix(raw, "file://")
		if path == "" {
			return SinkSpec{}, fmt.Errorf("config: %s=%q missing a path", EnvLog, raw)
		}
		return SinkSpec{Target: TargetFile, Path: path}, nil
	case strings.HasPrefix(raw, "callback://"):
		addr := strings.TrimPrefix(raw, "callback://")
		if _, err := strconv.ParseUint(strings.TrimPrefix(addr, "0x"), 16, 64); err != nil {
			return SinkSpec{}, fmt.Errorf("config: %s=%q has an invalid callback address: %w", EnvLog, raw, err)
		}
		return SinkSpec{Target: TargetCallback, CallbackAddr: addr}, nil
	default:
		return SinkSpec{}, fmt.Errorf("config: unrecognized %s=%q", EnvLog, raw)
	}
}

// FilterLists is the colon-split ignore-frame and ignore-pattern lists.
type FilterLists struct {
	ExactFrames []string
	Patterns    []string
}

func splitColon(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ":")
}

// Config is everything Load reads at bootstrap.
type Config struct {
	Sink   SinkSpec
	Filter FilterLists
}

// Load reads LKSMITH_LOG, LKSMITH_IGNORED_FRAMES and
// LKSMITH_IGNORED_FRAME_PATTERNS from the environment.
func Load() (Config, error) {
	spec, err := ParseSinkSpec(os.Getenv(EnvLog))
	if err != nil {
		return Config{}, err
	}
	return Config{
		Sink: spec,
		Filter: FilterLists{
			ExactFrames: splitColon(os.Getenv(EnvIgnoredFrames)),
			Patterns:    splitColon(os.Getenv(EnvIgnoredFramePatterns)),
		},
	}, nil
}

// BuildSink constructs the concrete sink named by spec. callback, if
// non-nil, is used for TargetCallback (Locksmith has no real address to
// call through; see sink.CallbackFunc). A nil callback with a
// TargetCallback spec falls back to stderr.
func BuildSink(spec SinkSpec, callback sink.CallbackFunc) (sink.Sink, error) {
	switch spec.Target {
	case TargetStderr:
		return sink.NewStderrSink(), nil
	case TargetStdout:
		return sink.NewStdoutSink(), nil
	case TargetSyslog:
		return sink.NewSyslogSink("locksmith")
	case TargetFile:
		return sink.NewFileSink(spec.Path)
	case TargetCallback:
		if callback == nil {
			return sink.NewStderrSink(), nil
		}
		return sink.NewCallbackSink(callback), nil
	default:
		return nil, fmt.Errorf("config: unknown sink target %d", spec.Target)
	}
}
