package pluginproc_test

import (
	"testing"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/pluginproc"
	"github.com/razvnane/dqcsim/pluginrt"
	"github.com/razvnane/dqcsim/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveLoopback(t *testing.T, rt *pluginrt.Runtime) *pluginproc.Handle {
	t.Helper()
	hostT, pluginT := pluginproc.NewLoopback()
	require.NoError(t, rt.Serve(pluginT))
	h, err := pluginproc.Spawn("under-test", hostT)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHandleInitReportsMetadata(t *testing.T) {
	rt := pluginrt.New(wire.PluginMetadata{Name: "echo", Author: "a", Version: "1.0"}, nil)
	h := serveLoopback(t, rt)

	require.NoError(t, h.Init("", "logger:x", nil))
	assert.Equal(t, "echo", h.Metadata.Name)
}

func TestHandleArbRoundTrip(t *testing.T) {
	rt := pluginrt.New(wire.PluginMetadata{Name: "backend"}, nil)
	rt.OnArb("info", "ping", func(cmd arb.Cmd) (arb.Data, error) {
		return arb.Data{Json: []byte(`"pong"`)}, nil
	})
	h := serveLoopback(t, rt)
	require.NoError(t, h.Init("", "logger:x", nil))

	cmd, err := arb.NewCmd("info", "ping", arb.Empty())
	require.NoError(t, err)
	resp, err := h.Arb(cmd)
	require.NoError(t, err)
	assert.Equal(t, `"pong"`, string(resp.Json))
}

func TestHandleRunRoundTrip(t *testing.T) {
	rt := pluginrt.New(wire.PluginMetadata{Name: "frontend"}, func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		require.NotNil(t, start)
		result := start.Clone()
		return &result, messages
	})
	h := serveLoopback(t, rt)
	require.NoError(t, h.Init("", "logger:x", nil))

	start := arb.Data{Json: []byte(`1`)}
	resp, err := h.Run(&start, []arb.Data{{Json: []byte(`2`)}})
	require.NoError(t, err)
	require.NotNil(t, resp.ReturnValue)
	assert.Equal(t, "1", string(resp.ReturnValue.Json))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "2", string(resp.Messages[0].Json))
}
