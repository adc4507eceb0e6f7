package wire

import "github.com/razvnane/dqcsim/arb"

// PluginMetadata is the immutable triple a plugin reports at init.
type PluginMetadata struct {
	Name    string `cbor:"name"`
	Author  string `cbor:"author"`
	Version string `cbor:"version"`
}

// InitRequest is sent host(or upstream plugin) -> plugin to start its
// initialization handshake.
//
// DownstreamEndpoint is empty for the backend (leaf); otherwise it is the
// upstream endpoint produced by the next plugin's init.
type InitRequest struct {
	DownstreamEndpoint string `cbor:"downstream_endpoint,omitempty"`
	LoggerEndpoint     string `cbor:"logger_endpoint"`
	// ConfigCmds are the plugin's configured InitCmds, delivered with the
	// init handshake.
	ConfigCmds []arb.Cmd `cbor:"config_cmds,omitempty"`
}

// InitResponse answers an InitRequest.
//
// UpstreamEndpoint is the address the immediately-upstream plugin must dial;
// empty for the frontend (which has no upstream plugin, only the host).
type InitResponse struct {
	Metadata         PluginMetadata `cbor:"metadata"`
	UpstreamEndpoint string         `cbor:"upstream_endpoint,omitempty"`
}

// AcceptUpstreamRequest carries no data; its arrival alone is the signal to
// block until the upstream neighbor has dialed in.
type AcceptUpstreamRequest struct{}

// AcceptUpstreamResponse carries no data beyond success.
type AcceptUpstreamResponse struct{}

// RunRequest is the single RPC type exchanged with the frontend on every
// yield. Start is present iff the pre-call AcceleratorState was
// StartPending; Messages is the full, order-preserved drain of
// host_to_accel queued since the previous yield.
type RunRequest struct {
	Start    *arb.Data  `cbor:"start,omitempty"`
	Messages []arb.Data `cbor:"messages,omitempty"`
}

// RunResponse answers a RunRequest. ReturnValue is present iff the
// AcceleratorState was Blocked when the request was sent (after any
// StartPending -> Blocked transition of the same yield), i.e. the
// frontend's run function returned during this yield.
type RunResponse struct {
	ReturnValue *arb.Data  `cbor:"return_value,omitempty"`
	Messages    []arb.Data `cbor:"messages,omitempty"`
}

// ArbCmdRequest addresses a side-channel command directly at one plugin,
// bypassing the gate-stream pipeline entirely.
type ArbCmdRequest struct {
	Cmd arb.Cmd `cbor:"cmd"`
}

// ArbCmdResponse carries the addressed plugin's reply.
type ArbCmdResponse struct {
	Data arb.Data `cbor:"data"`
}

// ErrorPayload is sent in place of any response when the plugin-side
// operation failed.
type ErrorPayload struct {
	Kind    string `cbor:"kind"`
	Message string `cbor:"message"`
}

// HelloPayload is exchanged once per connection before any RPC, to
// negotiate frame-size limits.
type HelloPayload struct {
	Limits Limits `cbor:"limits"`
}
