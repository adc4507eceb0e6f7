package host

import (
	"fmt"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/config"
	derrors "github.com/razvnane/dqcsim/errors"
	"github.com/razvnane/dqcsim/pluginproc"
	"github.com/razvnane/dqcsim/pluginrt"
)

// Orchestrator drives one simulation's pipeline: it owns every plugin
// handle, the host<->accelerator queues, and the AcceleratorState machine.
// Its construction order and its five-operation facade (Start, Wait, Send,
// Recv, Yield) are grounded on dqcsim/src/host/simulation.rs's Simulation.
type Orchestrator struct {
	cfg     config.SimulatorConfiguration
	plugins []*pluginproc.Handle

	state accelState
	q     queues

	closed bool
}

// InProcessRuntimes maps a plugin's InstanceName to a runtime to run
// in-process instead of spawning cfg.Plugins[i].Path as a subprocess. Used
// for in-process plugins and for tests; any instance name absent
// from the map with a non-empty Path is spawned as a real process.
type InProcessRuntimes map[string]*pluginrt.Runtime

// New spawns every configured plugin, then brings the pipeline up
// back-to-front: all InitRequests are sent in reverse order (backend
// first) so that each plugin's InitResponse.UpstreamEndpoint can be handed
// to its upstream neighbor as DownstreamEndpoint, and finally every plugin
// but the frontend is told to accept its upstream connection, again in
// reverse order. Failures at any phase are collected across every plugin
// and returned together rather than failing fast on the first one, per
// spec.md §4's aggregated error reporting.
func New(cfg config.SimulatorConfiguration, runtimes InProcessRuntimes) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, derrors.Wrap(derrors.InvArg, err, "invalid configuration")
	}

	n := len(cfg.Plugins)
	handles := make([]*pluginproc.Handle, n)

	spawnErrs := derrors.MultiError{}
	for i, pc := range cfg.Plugins {
		h, err := spawnOne(pc, runtimes)
		if err != nil {
			spawnErrs.Add(pc.InstanceName, err)
			continue
		}
		handles[i] = h
	}
	if err := spawnErrs.OrNil(); err != nil {
		closeAll(handles)
		return nil, derrors.Wrap(derrors.PluginFailure, err, "spawning plugins")
	}

	initErrs := derrors.MultiError{}
	downstream := "" // backend has no downstream
	for i := n - 1; i >= 0; i-- {
		loggerEndpoint := fmt.Sprintf("logger:%s", cfg.Plugins[i].InstanceName)
		if err := handles[i].Init(downstream, loggerEndpoint, cfg.Plugins[i].InitCmds); err != nil {
			initErrs.Add(cfg.Plugins[i].InstanceName, err)
			continue
		}
		downstream = handles[i].UpstreamEndpoint()
	}
	if err := initErrs.OrNil(); err != nil {
		closeAll(handles)
		return nil, derrors.Wrap(derrors.PluginFailure, err, "initializing plugins")
	}

	acceptErrs := derrors.MultiError{}
	for i := n - 1; i > 0; i-- { // skip the frontend at index 0: it has no upstream
		if err := handles[i].AcceptUpstream(); err != nil {
			acceptErrs.Add(cfg.Plugins[i].InstanceName, err)
		}
	}
	if err := acceptErrs.OrNil(); err != nil {
		closeAll(handles)
		return nil, derrors.Wrap(derrors.PluginFailure, err, "connecting plugins")
	}

	return &Orchestrator{cfg: cfg, plugins: handles, state: newIdle()}, nil
}

func spawnOne(pc config.PluginConfiguration, runtimes InProcessRuntimes) (*pluginproc.Handle, error) {
	if rt, ok := runtimes[pc.InstanceName]; ok {
		hostT, pluginT := pluginproc.NewLoopback()
		if err := rt.Serve(pluginT); err != nil {
			return nil, err
		}
		return pluginproc.Spawn(pc.InstanceName, hostT)
	}
	if pc.Path == "" {
		return nil, derrors.New(derrors.InvArg, "plugin %s has no path and no in-process runtime registered", pc.InstanceName)
	}
	t, err := pluginproc.SpawnProcess(pc.Path, nil, pc.StreamCapture.Pass)
	if err != nil {
		return nil, err
	}
	return pluginproc.Spawn(pc.InstanceName, t)
}

func closeAll(handles []*pluginproc.Handle) {
	for _, h := range handles {
		if h != nil {
			_ = h.Close()
		}
	}
}

// frontend is always pipeline index 0.
func (o *Orchestrator) frontend() *pluginproc.Handle { return o.plugins[0] }

// Start transitions Idle -> StartPending, handing data to the frontend on
// the next yield. Calling it while already started is a caller error.
func (o *Orchestrator) Start(data arb.Data) error {
	if o.state.kind != Idle {
		return derrors.New(derrors.InvOp, "accelerator is already running; call wait() first")
	}
	next, err := o.state.putData(data)
	if err != nil {
		return err
	}
	o.state = next
	return nil
}

// Wait collects the frontend's return value, performing at most one yield
// if it has not produced one yet. If a yield was attempted and the
// frontend is still running (or never started) afterward, no further
// progress is possible and Wait reports Deadlock without looping or
// waiting on a timer.
func (o *Orchestrator) Wait() (arb.Data, error) {
	if o.state.kind == WaitPending {
		return o.takeWaitPending()
	}
	if err := o.yield(); err != nil {
		return arb.Data{}, err
	}
	if o.state.kind == WaitPending {
		return o.takeWaitPending()
	}
	return arb.Data{}, derrors.New(derrors.Deadlock, "accelerator is blocked on recv() while we are expecting it to return")
}

func (o *Orchestrator) takeWaitPending() (arb.Data, error) {
	d, next, err := o.state.takeData()
	if err != nil {
		return arb.Data{}, err
	}
	o.state = next
	return d, nil
}

// Send enqueues a message to be delivered to the frontend on the next
// yield. It never itself triggers a yield.
func (o *Orchestrator) Send(data arb.Data) {
	o.q.send(data)
}

// Recv returns the oldest message sent by the accelerator, yielding at
// most once if none is queued yet. Reports Deadlock if the queue is still
// empty after that one yield.
func (o *Orchestrator) Recv() (arb.Data, error) {
	if d, ok := o.q.recv(); ok {
		return d, nil
	}
	if err := o.yield(); err != nil {
		return arb.Data{}, err
	}
	if d, ok := o.q.recv(); ok {
		return d, nil
	}
	return arb.Data{}, derrors.New(derrors.Deadlock, "recv() called while queue is empty and accelerator is idle")
}

// Yield gives the accelerator a chance to run without the host otherwise
// waiting for or sending anything. Like the other operations it performs
// exactly one round trip; it is harmless to call when there is nothing to
// do (the frontend is simply handed an empty message batch).
func (o *Orchestrator) Yield() error {
	return o.yield()
}

// yield performs exactly one round trip to the frontend: it hands over
// any StartPending data plus every message queued since the previous
// yield, and records whatever the frontend sends back (a return value,
// iff it ran to a `return`/`wait`-able point, and any messages). A
// response carrying a return value is only valid while the frontend was
// actually running (Blocked); anything else means the peer violated the
// run() contract.
func (o *Orchestrator) yield() error {
	var start *arb.Data
	if o.state.kind == StartPending {
		d, next, err := o.state.takeData()
		if err != nil {
			return err
		}
		o.state = next
		start = &d
	}
	msgs := o.q.drainOutgoing()

	resp, err := o.frontend().Run(start, msgs)
	if err != nil {
		return err
	}
	o.q.pushIncoming(resp.Messages)

	if resp.ReturnValue != nil {
		if o.state.kind != Blocked {
			return derrors.New(derrors.Protocol, "unexpected run() return value")
		}
		next, err := o.state.putData(*resp.ReturnValue)
		if err != nil {
			return err
		}
		o.state = next
	}
	return nil
}

// resolveIndex converts a possibly-negative plugin index to an absolute
// one, exactly like Python-style slicing: -1 is the last plugin, -n is the
// first. Anything still out of [0, n) after the adjustment is InvArg.
func (o *Orchestrator) resolveIndex(idx int) (int, error) {
	n := len(o.plugins)
	abs := idx
	if abs < 0 {
		abs += n
	}
	if abs < 0 || abs >= n {
		return 0, derrors.New(derrors.InvArg, "plugin index %d out of range for %d plugins", idx, n)
	}
	return abs, nil
}

// ArbIdx sends cmd directly to the plugin at idx, bypassing the gate
// pipeline. idx follows Python-style negative indexing: -1 is the last
// plugin (the backend), 0 is the frontend.
func (o *Orchestrator) ArbIdx(idx int, cmd arb.Cmd) (arb.Data, error) {
	abs, err := o.resolveIndex(idx)
	if err != nil {
		return arb.Data{}, err
	}
	return o.plugins[abs].Arb(cmd)
}

// Arb sends cmd to the plugin named name.
func (o *Orchestrator) Arb(name string, cmd arb.Cmd) (arb.Data, error) {
	for _, h := range o.plugins {
		if h.InstanceName == name {
			return h.Arb(cmd)
		}
	}
	return arb.Data{}, derrors.New(derrors.InvArg, "no plugin named %q", name)
}

// GetMetadataIdx returns the metadata reported by the plugin at idx.
func (o *Orchestrator) GetMetadataIdx(idx int) (PluginMetadata, error) {
	abs, err := o.resolveIndex(idx)
	if err != nil {
		return PluginMetadata{}, err
	}
	h := o.plugins[abs]
	return PluginMetadata{Name: h.Metadata.Name, Author: h.Metadata.Author, Version: h.Metadata.Version}, nil
}

// GetMetadata returns the metadata reported by the plugin named name.
func (o *Orchestrator) GetMetadata(name string) (PluginMetadata, error) {
	for _, h := range o.plugins {
		if h.InstanceName == name {
			return PluginMetadata{Name: h.Metadata.Name, Author: h.Metadata.Author, Version: h.Metadata.Version}, nil
		}
	}
	return PluginMetadata{}, derrors.New(derrors.InvArg, "no plugin named %q", name)
}

// PluginMetadata is the host-facing copy of a plugin's self-reported
// identity, decoupled from the wire representation.
type PluginMetadata struct {
	Name    string
	Author  string
	Version string
}

// Close tears down every plugin in reverse pipeline order (frontend last),
// mirroring the back-to-front bring-up. Go has no deterministic
// destructors, so callers must invoke Close explicitly; it is safe to call
// more than once.
func (o *Orchestrator) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	errs := derrors.MultiError{}
	for i := len(o.plugins) - 1; i >= 0; i-- {
		if err := o.plugins[i].Close(); err != nil {
			errs.Add(o.cfg.Plugins[i].InstanceName, err)
		}
	}
	return errs.OrNil()
}
