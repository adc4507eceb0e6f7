package host_test

import (
	"testing"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/config"
	derrors "github.com/razvnane/dqcsim/errors"
	"github.com/razvnane/dqcsim/host"
	"github.com/razvnane/dqcsim/pluginrt"
	"github.com/razvnane/dqcsim/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPluginConfig() config.SimulatorConfiguration {
	return config.SimulatorConfiguration{
		Plugins: []config.PluginConfiguration{
			{Type: config.PluginTypeFrontend, InstanceName: "front"},
			{Type: config.PluginTypeBackend, InstanceName: "back"},
		},
	}
}

func threePluginConfig() config.SimulatorConfiguration {
	return config.SimulatorConfiguration{
		Plugins: []config.PluginConfiguration{
			{Type: config.PluginTypeFrontend, InstanceName: "front"},
			{Type: config.PluginTypeOperator, InstanceName: "op"},
			{Type: config.PluginTypeBackend, InstanceName: "back"},
		},
	}
}

func newOrchestrator(t *testing.T, cfg config.SimulatorConfiguration, frontendRun pluginrt.RunFunc, extra host.InProcessRuntimes) *host.Orchestrator {
	t.Helper()
	runtimes := host.InProcessRuntimes{}
	for k, v := range extra {
		runtimes[k] = v
	}
	for _, pc := range cfg.Plugins {
		if _, ok := runtimes[pc.InstanceName]; ok {
			continue
		}
		var run pluginrt.RunFunc
		if pc.Type == config.PluginTypeFrontend {
			run = frontendRun
		}
		runtimes[pc.InstanceName] = pluginrt.New(wire.PluginMetadata{Name: pc.InstanceName}, run)
	}
	orc, err := host.New(cfg, runtimes)
	require.NoError(t, err)
	t.Cleanup(func() { _ = orc.Close() })
	return orc
}

func TestEchoRun(t *testing.T) {
	echo := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		d := start.Clone()
		return &d, nil
	}
	orc := newOrchestrator(t, twoPluginConfig(), echo, nil)

	in := arb.Data{Json: []byte(`7`)}
	require.NoError(t, orc.Start(in))
	out, err := orc.Wait()
	require.NoError(t, err)
	assert.Equal(t, "7", string(out.Json))
}

func TestSendRecvPingPong(t *testing.T) {
	// Echoes whatever was sent; once there is nothing left to relay, returns
	// to signal the accelerator is done, closing out the scenario's wait().
	relay := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		if len(messages) == 0 {
			d := arb.Empty()
			return &d, nil
		}
		return nil, messages
	}
	orc := newOrchestrator(t, twoPluginConfig(), relay, nil)

	require.NoError(t, orc.Start(arb.Empty()))
	orc.Send(arb.Data{Json: []byte(`1`)})
	orc.Send(arb.Data{Json: []byte(`2`)})

	first, err := orc.Recv()
	require.NoError(t, err)
	assert.Equal(t, "1", string(first.Json))

	second, err := orc.Recv()
	require.NoError(t, err)
	assert.Equal(t, "2", string(second.Json))

	out, err := orc.Wait()
	require.NoError(t, err)
	assert.Equal(t, "null", string(out.Json))
}

func TestWaitDeadlocksWhenAcceleratorNeverReturns(t *testing.T) {
	stuck := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		return nil, nil
	}
	orc := newOrchestrator(t, twoPluginConfig(), stuck, nil)

	require.NoError(t, orc.Start(arb.Empty()))
	_, err := orc.Wait()
	require.Error(t, err)
	kind, ok := derrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, derrors.Deadlock, kind)
}

func TestRecvDeadlocksWhenNoMessageArrives(t *testing.T) {
	silent := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		return nil, nil
	}
	orc := newOrchestrator(t, twoPluginConfig(), silent, nil)

	require.NoError(t, orc.Start(arb.Empty()))
	_, err := orc.Recv()
	require.Error(t, err)
	kind, ok := derrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, derrors.Deadlock, kind)
}

func TestDoubleStartIsInvOp(t *testing.T) {
	echo := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		d := start.Clone()
		return &d, nil
	}
	orc := newOrchestrator(t, twoPluginConfig(), echo, nil)
	require.NoError(t, orc.Start(arb.Empty()))

	err := orc.Start(arb.Empty())
	require.Error(t, err)
	kind, ok := derrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, derrors.InvOp, kind)
}

func TestArbIdxNegativeAddressing(t *testing.T) {
	echo := func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		d := start.Clone()
		return &d, nil
	}
	backendRt := pluginrt.New(wire.PluginMetadata{Name: "back"}, nil)
	backendRt.OnArb("info", "ping", func(cmd arb.Cmd) (arb.Data, error) {
		return arb.Data{Json: []byte(`"pong"`)}, nil
	})
	orc := newOrchestrator(t, threePluginConfig(), echo, host.InProcessRuntimes{"back": backendRt})

	cmd, err := arb.NewCmd("info", "ping", arb.Empty())
	require.NoError(t, err)

	_, err = orc.ArbIdx(-1, cmd) // backend
	assert.NoError(t, err)

	_, err = orc.ArbIdx(-4, cmd) // out of range for 3 plugins
	require.Error(t, err)
	kind, ok := derrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, derrors.InvArg, kind)
}

func TestNewAggregatesSpawnFailures(t *testing.T) {
	cfg := config.SimulatorConfiguration{
		Plugins: []config.PluginConfiguration{
			{Type: config.PluginTypeFrontend, InstanceName: "front"},
			{Type: config.PluginTypeBackend, InstanceName: "back"},
		},
	}
	_, err := host.New(cfg, host.InProcessRuntimes{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "front")
	assert.Contains(t, err.Error(), "back")
	assert.Contains(t, err.Error(), ";")
}
