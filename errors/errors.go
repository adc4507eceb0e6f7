// Package errors defines the six error kinds of the orchestrator's error
// model and the sentinel values used with errors.Is.
package errors

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// InvArg: caller passed an invalid argument.
	InvArg Kind = iota
	// InvOp: legal arguments but illegal state.
	InvOp
	// Protocol: the peer violated the RPC contract.
	Protocol
	// Deadlock: a yield made no progress toward the host's demand.
	Deadlock
	// PluginFailure: a plugin errored during spawn/init/accept/rpc.
	PluginFailure
	// Io: transport or OS failure.
	Io
)

func (k Kind) String() string {
	switch k {
	case InvArg:
		return "InvArg"
	case InvOp:
		return "InvOp"
	case Protocol:
		return "Protocol"
	case Deadlock:
		return "Deadlock"
	case PluginFailure:
		return "PluginFailure"
	case Io:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is the orchestrator's error type: a Kind plus a message, optionally
// wrapping an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, errors.ErrInvArg) style checks: any *Error
// target, such as the Err* sentinels below, matches by Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind around an existing error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Sentinels for use with errors.Is; the Msg field is ignored by Is.
var (
	ErrInvArg        = &Error{Kind: InvArg}
	ErrInvOp         = &Error{Kind: InvOp}
	ErrProtocol      = &Error{Kind: Protocol}
	ErrDeadlock      = &Error{Kind: Deadlock}
	ErrPluginFailure = &Error{Kind: PluginFailure}
	ErrIo            = &Error{Kind: Io}
)

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return 0, false
	}
	return e.Kind, true
}
