// Package host implements the orchestrator: the back-to-front plugin
// bring-up protocol, the FIFO host<->accelerator message queues, the
// four-state AcceleratorState machine, and the single-round-trip yield
// algorithm with post-hoc deadlock detection. Grounded on
// dqcsim/src/host/simulation.rs, adapted from Rust enum-matching to a Go
// tagged-union struct.
package host

import (
	"github.com/razvnane/dqcsim/arb"
	derrors "github.com/razvnane/dqcsim/errors"
)

// AcceleratorState is the four-state machine described in spec.md §3:
// Idle (never started, or finished and drained), StartPending (start() was
// called but the frontend has not yet been given the chance to run),
// Blocked (the frontend is running: it has been handed its argument but has
// not yet returned), and WaitPending (the frontend's run function returned,
// carrying a return value not yet collected by wait()).
type AcceleratorState int

const (
	Idle AcceleratorState = iota
	StartPending
	Blocked
	WaitPending
)

func (s AcceleratorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case StartPending:
		return "start-pending"
	case Blocked:
		return "blocked"
	case WaitPending:
		return "wait-pending"
	default:
		return "unknown"
	}
}

// accelState carries the payload attached to StartPending and WaitPending,
// the two states that transport an arb.Data value across a yield:
// StartPending holds the argument not yet handed to the frontend,
// WaitPending holds the return value not yet handed to wait(). Blocked
// carries nothing — it only means the frontend is currently running. It
// mirrors simulation.rs's AcceleratorState enum, where Go has no tagged
// union and instead stores the active variant alongside its discriminant.
type accelState struct {
	kind AcceleratorState
	data arb.Data // valid only when kind is StartPending or WaitPending
}

func newIdle() accelState                   { return accelState{kind: Idle} }
func newStartPending(d arb.Data) accelState { return accelState{kind: StartPending, data: d} }
func newBlocked() accelState                { return accelState{kind: Blocked} }
func newWaitPending(d arb.Data) accelState  { return accelState{kind: WaitPending, data: d} }

// putData attaches d to the state, the two legal edges being Idle ->
// StartPending (start()'s argument) and Blocked -> WaitPending (yield()
// recording the frontend's return value). Any other current state already
// has data pending and putData refuses to silently overwrite it.
func (s accelState) putData(d arb.Data) (accelState, error) {
	switch s.kind {
	case Idle:
		return newStartPending(d), nil
	case Blocked:
		return newWaitPending(d), nil
	default:
		return s, derrors.New(derrors.InvOp, "data is already pending")
	}
}

// takeData extracts the carried arb.Data, the two legal edges being
// StartPending -> Blocked (yield() handing the argument to the frontend)
// and WaitPending -> Idle (wait() collecting the return value). Idle and
// Blocked carry no data to take.
func (s accelState) takeData() (arb.Data, accelState, error) {
	switch s.kind {
	case StartPending:
		return s.data, newBlocked(), nil
	case WaitPending:
		return s.data, newIdle(), nil
	default:
		return arb.Data{}, s, derrors.New(derrors.InvOp, "no data pending")
	}
}
