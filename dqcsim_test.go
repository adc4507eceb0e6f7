package dqcsim_test

import (
	"path/filepath"
	"testing"

	dqcsim "github.com/razvnane/dqcsim"
	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/config"
	"github.com/razvnane/dqcsim/host"
	"github.com/razvnane/dqcsim/pluginrt"
	"github.com/razvnane/dqcsim/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoConfig() config.SimulatorConfiguration {
	cfg := config.Default()
	cfg.Plugins = []config.PluginConfiguration{
		{Type: config.PluginTypeFrontend, InstanceName: "front"},
		{Type: config.PluginTypeBackend, InstanceName: "back"},
	}
	return cfg
}

func TestSimulationEndToEndEcho(t *testing.T) {
	front := pluginrt.New(wire.PluginMetadata{Name: "front"}, func(start *arb.Data, messages []arb.Data) (*arb.Data, []arb.Data) {
		d := start.Clone()
		return &d, nil
	})
	back := pluginrt.New(wire.PluginMetadata{Name: "back"}, nil)

	sim, err := dqcsim.New(echoConfig(), host.InProcessRuntimes{"front": front, "back": back})
	require.NoError(t, err)
	defer sim.Close()

	require.NoError(t, sim.Start(arb.Data{Json: []byte(`99`)}))
	out, err := sim.Wait()
	require.NoError(t, err)
	assert.Equal(t, "99", string(out.Json))

	meta, err := sim.GetMetadataIdx(0)
	require.NoError(t, err)
	assert.Equal(t, "front", meta.Name)
}

func TestReproductionFileRoundTrip(t *testing.T) {
	cfg := echoConfig()
	cfg.Seed = 42

	path := filepath.Join(t.TempDir(), "repro.yaml")
	require.NoError(t, dqcsim.WriteReproductionFile(path, cfg))

	got, err := dqcsim.LoadReproductionFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Seed(42), got.Seed)
	require.Len(t, got.Plugins, 2)
	assert.Equal(t, "front", got.Plugins[0].InstanceName)
}
