// Package dlog is a small level-gated wrapper around the standard log
// package. Verbosity is read from DSOAL_LOGLEVEL on every call (spec.md §6), the
// same os.Getenv-driven gate the teacher uses for PSG_DEBUG in
// psg_player.go and ym_parser.go, generalised from a boolean to a 0..3
// level.
package dlog

import (
	"log"
	"os"
	"strconv"
)

// Level mirrors the DSOAL_LOGLEVEL verbosity scale from spec.md §6.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelTrace
)

// level re-reads DSOAL_LOGLEVEL on every call, the same way the teacher's
// psgDebugEnabled() re-reads PSG_DEBUG rather than caching it at init, so
// tests can toggle it with t.Setenv.
func level() Level {
	v, err := strconv.Atoi(os.Getenv("DSOAL_LOGLEVEL"))
	if err != nil || v < int(LevelError) {
		return LevelError
	}
	if v > int(LevelTrace) {
		return LevelTrace
	}
	return Level(v)
}

var logger = log.New(os.Stderr, "dsoalgo: ", log.LstdFlags)

// Errorf always logs; it is the tier spec.md §7 calls out for backend
// errors at a point where the design assumes success.
func Errorf(format string, args ...any) {
	if level() >= LevelError {
		logger.Printf("ERROR "+format, args...)
	}
}

func Warnf(format string, args ...any) {
	if level() >= LevelWarn {
		logger.Printf("WARN "+format, args...)
	}
}

func Infof(format string, args ...any) {
	if level() >= LevelInfo {
		logger.Printf("INFO "+format, args...)
	}
}

func Tracef(format string, args ...any) {
	if level() >= LevelTrace {
		logger.Printf("TRACE "+format, args...)
	}
}

// Enabled reports whether the given level would currently produce output;
// useful to skip building an expensive log argument.
func Enabled(l Level) bool { return level() >= l }
