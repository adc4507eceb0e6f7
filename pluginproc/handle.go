package pluginproc

import (
	"fmt"
	"sync"

	"github.com/razvnane/dqcsim/arb"
	derrors "github.com/razvnane/dqcsim/errors"
	"github.com/razvnane/dqcsim/wire"
)

// Handle is the host's view of one running plugin: a handshake-negotiated
// transport plus the metadata it reported during init.
type Handle struct {
	InstanceName string
	Metadata     wire.PluginMetadata

	ep *endpoint

	// upstreamEndpoint is the address this plugin listens on for its
	// upstream neighbor to connect to, reported in InitResponse.
	upstreamEndpoint string

	mu sync.Mutex
}

// Spawn establishes the transport and HELLO handshake for a plugin, but
// does not yet send InitRequest — that happens in a second, reversed pass
// once every plugin in the pipeline has been spawned, matching the
// back-to-front bring-up order.
func Spawn(instanceName string, t Transport) (*Handle, error) {
	ep := newEndpoint(t)
	if _, err := wire.HandshakeInitiate(ep.r, ep.w); err != nil {
		return nil, derrors.Wrap(derrors.PluginFailure, err, "HELLO handshake with %s", instanceName)
	}
	return &Handle{InstanceName: instanceName, ep: ep}, nil
}

// Init sends InitRequest and records the plugin's self-reported metadata.
// downstreamEndpoint is empty for the backend, which has no downstream
// neighbor.
func (h *Handle) Init(downstreamEndpoint, loggerEndpoint string, configCmds []arb.Cmd) error {
	req := wire.InitRequest{
		DownstreamEndpoint: downstreamEndpoint,
		LoggerEndpoint:     loggerEndpoint,
		ConfigCmds:         configCmds,
	}
	var resp wire.InitResponse
	if err := h.rpc(wire.KindInitRequest, req, wire.KindInitResponse, &resp); err != nil {
		return derrors.Wrap(derrors.PluginFailure, err, "init %s", h.InstanceName)
	}
	h.Metadata = resp.Metadata
	h.upstreamEndpoint = resp.UpstreamEndpoint
	return nil
}

// AcceptUpstream tells a non-frontend plugin to accept the connection from
// its upstream neighbor. Called in a second reversed pass, after every
// plugin's InitResponse has been collected.
func (h *Handle) AcceptUpstream() error {
	var resp wire.AcceptUpstreamResponse
	if err := h.rpc(wire.KindAcceptUpstreamRequest, wire.AcceptUpstreamRequest{}, wire.KindAcceptUpstreamResponse, &resp); err != nil {
		return derrors.Wrap(derrors.PluginFailure, err, "accept upstream for %s", h.InstanceName)
	}
	return nil
}

// Run sends the frontend a RunRequest (start data plus queued messages) and
// returns its RunResponse. Only ever called on the frontend; other plugins
// run in response to Run calls made *of* them by their downstream neighbor
// inside their own process, invisible to the host.
func (h *Handle) Run(start *arb.Data, messages []arb.Data) (wire.RunResponse, error) {
	req := wire.RunRequest{Start: start, Messages: messages}
	var resp wire.RunResponse
	if err := h.rpc(wire.KindRunRequest, req, wire.KindRunResponse, &resp); err != nil {
		return wire.RunResponse{}, derrors.Wrap(derrors.PluginFailure, err, "run %s", h.InstanceName)
	}
	return resp, nil
}

// Arb sends an ArbCmd to this plugin and returns its response data.
func (h *Handle) Arb(cmd arb.Cmd) (arb.Data, error) {
	req := wire.ArbCmdRequest{Cmd: cmd}
	var resp wire.ArbCmdResponse
	if err := h.rpc(wire.KindArbCmdRequest, req, wire.KindArbCmdResponse, &resp); err != nil {
		return arb.Data{}, derrors.Wrap(derrors.PluginFailure, err, "arb %s.%s on %s", cmd.Iface, cmd.Oper, h.InstanceName)
	}
	return resp.Data, nil
}

// UpstreamEndpoint is the address this plugin reported for its upstream
// neighbor to connect to. Empty for the frontend, which has no upstream.
func (h *Handle) UpstreamEndpoint() string { return h.upstreamEndpoint }

// Close tears down the transport.
func (h *Handle) Close() error {
	return h.ep.t.Close()
}

// rpc sends payload as reqKind and waits for the matching response,
// rejecting anything but the expected kind (a KindError response is
// decoded and surfaced as a PluginFailure) — spec.md §4.1's "fails if the
// response is not the expected variant".
func (h *Handle) rpc(reqKind wire.Kind, payload interface{}, wantKind wire.Kind, out interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := wire.NewMessageIdRandom()
	if err := h.ep.w.WriteMessage(id, reqKind, payload); err != nil {
		return fmt.Errorf("write %s: %w", reqKind, err)
	}

	env, err := h.ep.r.ReadEnvelope()
	if err != nil {
		return fmt.Errorf("read response to %s: %w", reqKind, err)
	}
	if env.Kind == wire.KindError {
		var errPayload wire.ErrorPayload
		if decErr := env.Decode(&errPayload); decErr != nil {
			return fmt.Errorf("decode error response to %s: %w", reqKind, decErr)
		}
		return fmt.Errorf("plugin error (%s): %s", errPayload.Kind, errPayload.Message)
	}
	if env.Kind != wantKind {
		return derrors.New(derrors.Protocol, "expected %s response to %s, got %s", wantKind, reqKind, env.Kind)
	}
	if !env.Id.Equals(id) {
		return derrors.New(derrors.Protocol, "response to %s correlated to wrong request id", reqKind)
	}
	return env.Decode(out)
}
