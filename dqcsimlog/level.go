// Package dqcsimlog implements the core's only communication with the
// logging subsystem: a non-blocking sink that the host thread writes
// Records to, drained by one background goroutine. Routing those records to
// stderr, tee files, or a host callback is the sink's job, not the core's.
package dqcsimlog

import "github.com/rs/zerolog"

// Level mirrors dqcs_loglevel_t: eight message levels (Fatal..Pass), plus
// Off as the zero value for "no logging wanted" at a given sink.
type Level int

const (
	Off Level = iota
	Fatal
	Error
	Warn
	Note
	Info
	Debug
	Trace
	Pass
)

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Fatal:
		return "fatal"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Note:
		return "note"
	case Info:
		return "info"
	case Debug:
		return "debug"
	case Trace:
		return "trace"
	case Pass:
		return "pass"
	default:
		return "unknown"
	}
}

// zerologLevel maps the eight-level DQCsim scheme onto six zerolog levels
// (Fatal, Error, Warn, Info, Debug, Trace). Note and Pass have no zerolog
// equivalent; Note sits between Warn and Info (user-requested output) so it
// is logged at zerolog's Info level; Pass is logged at zerolog's NoLevel.
// The sink records the original level in each entry's "dqcsim_level" field.
func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case Fatal:
		return zerolog.FatalLevel
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	case Note, Info:
		return zerolog.InfoLevel
	case Debug:
		return zerolog.DebugLevel
	case Trace:
		return zerolog.TraceLevel
	default:
		return zerolog.NoLevel
	}
}

// Enables reports whether a message at level l should be emitted to a sink
// filtering at threshold.
func Enables(threshold, l Level) bool {
	if threshold == Off {
		return false
	}
	if l == Pass {
		return true
	}
	return l <= threshold
}
