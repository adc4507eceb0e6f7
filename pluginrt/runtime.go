// Package pluginrt implements the plugin side of the wire protocol: an
// in-process event loop that serves InitRequest/AcceptUpstreamRequest/
// RunRequest/ArbCmdRequest over a Transport, used to build in-process
// plugins and test doubles without spawning a subprocess.
package pluginrt

import (
	"fmt"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/pluginproc"
	"github.com/razvnane/dqcsim/wire"
)

// RunFunc implements a frontend's run function: given the start data (nil
// unless this is the first call after start()) and any queued messages
// from the host, it either returns a result (ending the accelerator's
// current Blocked-producing call) or nil to indicate it instead consumed
// the call by sending/receiving without returning yet. A genuine frontend
// normally loops internally; this single-shot shape is sufficient for the
// loopback plugins and tests this runtime is built for.
type RunFunc func(start *arb.Data, messages []arb.Data) (result *arb.Data, toHost []arb.Data)

// ArbHandler answers an ArbCmd addressed directly at this plugin.
type ArbHandler func(cmd arb.Cmd) (arb.Data, error)

// Runtime is a minimal in-process plugin: it knows its own metadata, an
// optional RunFunc (only meaningful for a frontend), and a table of
// ArbHandlers keyed by "iface.oper".
type Runtime struct {
	Metadata wire.PluginMetadata
	Run      RunFunc
	Arbs     map[string]ArbHandler
}

// New constructs a Runtime. Run may be nil for non-frontend roles, which
// never receive RunRequest.
func New(metadata wire.PluginMetadata, run RunFunc) *Runtime {
	return &Runtime{Metadata: metadata, Run: run, Arbs: make(map[string]ArbHandler)}
}

// OnArb registers a handler for iface.oper ArbCmds.
func (rt *Runtime) OnArb(iface, oper string, h ArbHandler) {
	rt.Arbs[iface+"."+oper] = h
}

// Serve starts the plugin's HELLO handshake and request loop on t in a
// background goroutine and returns immediately; the loop exits when t's
// reader returns EOF or an unrecoverable error. A failed handshake closes
// t, so the host side sees EOF instead of waiting for a reply.
func (rt *Runtime) Serve(t pluginproc.Transport) error {
	r := wire.NewFrameReader(t.Reader())
	w := wire.NewFrameWriter(t.Writer())

	go func() {
		if _, err := wire.HandshakeAccept(r, w); err != nil {
			_ = t.Close()
			return
		}
		rt.loop(r, w)
	}()
	return nil
}

func (rt *Runtime) loop(r *wire.FrameReader, w *wire.FrameWriter) {
	for {
		env, err := r.ReadEnvelope()
		if err != nil {
			return
		}
		if err := rt.dispatch(env, w); err != nil {
			_ = w.WriteErr(env.Id, "PluginFailure", err.Error())
		}
	}
}

func (rt *Runtime) dispatch(env *wire.Envelope, w *wire.FrameWriter) error {
	switch env.Kind {
	case wire.KindInitRequest:
		var req wire.InitRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		resp := wire.InitResponse{Metadata: rt.Metadata}
		return w.WriteMessage(env.Id, wire.KindInitResponse, resp)

	case wire.KindAcceptUpstreamRequest:
		return w.WriteMessage(env.Id, wire.KindAcceptUpstreamResponse, wire.AcceptUpstreamResponse{})

	case wire.KindRunRequest:
		var req wire.RunRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		if rt.Run == nil {
			return fmt.Errorf("plugin %s has no run function to receive RunRequest", rt.Metadata.Name)
		}
		result, toHost := rt.Run(req.Start, req.Messages)
		return w.WriteMessage(env.Id, wire.KindRunResponse, wire.RunResponse{ReturnValue: result, Messages: toHost})

	case wire.KindArbCmdRequest:
		var req wire.ArbCmdRequest
		if err := env.Decode(&req); err != nil {
			return err
		}
		h, ok := rt.Arbs[req.Cmd.Key()]
		if !ok {
			return fmt.Errorf("no handler for %s", req.Cmd.Key())
		}
		data, err := h(req.Cmd)
		if err != nil {
			return err
		}
		return w.WriteMessage(env.Id, wire.KindArbCmdResponse, wire.ArbCmdResponse{Data: data})

	default:
		return fmt.Errorf("unexpected request kind %s", env.Kind)
	}
}
