package config

import (
	"testing"

	"github.com/razvnane/dqcsim/dqcsimlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePluginTypeRejectsUnknown(t *testing.T) {
	_, err := ParsePluginType("coprocessor")
	assert.Error(t, err)

	pt, err := ParsePluginType("operator")
	require.NoError(t, err)
	assert.Equal(t, PluginTypeOperator, pt)
}

func TestPluginTypeYAMLRejectsInvalidValue(t *testing.T) {
	var pt PluginType
	err := yaml.Unmarshal([]byte(`"quantum"`), &pt)
	assert.Error(t, err)
}

func TestPluginTypeYAMLRoundTrip(t *testing.T) {
	var pt PluginType
	require.NoError(t, yaml.Unmarshal([]byte(`"backend"`), &pt))
	assert.Equal(t, PluginTypeBackend, pt)

	out, err := yaml.Marshal(pt)
	require.NoError(t, err)
	assert.Contains(t, string(out), "backend")
}

func TestOptimizeLoglevelsClampsToLoudestSink(t *testing.T) {
	cfg := SimulatorConfiguration{
		StderrLevel: dqcsimlog.Warn,
		DqcsimLevel: dqcsimlog.Trace,
		Plugins: []PluginConfiguration{
			{Type: PluginTypeFrontend, InstanceName: "front", Verbosity: dqcsimlog.Trace},
		},
	}
	cfg.OptimizeLoglevels()
	assert.Equal(t, dqcsimlog.Warn, cfg.DqcsimLevel)
	assert.Equal(t, dqcsimlog.Warn, cfg.Plugins[0].Verbosity)
}

func TestOptimizeLoglevelsConsidersTeeFiles(t *testing.T) {
	cfg := SimulatorConfiguration{
		StderrLevel: dqcsimlog.Warn,
		DqcsimLevel: dqcsimlog.Trace,
		TeeFiles:    []dqcsimlog.TeeFile{{Path: "/tmp/x.log", Filter: dqcsimlog.Debug}},
	}
	cfg.OptimizeLoglevels()
	assert.Equal(t, dqcsimlog.Debug, cfg.DqcsimLevel)
}

func TestValidateRequiresFrontendAndBackendInOrder(t *testing.T) {
	cfg := SimulatorConfiguration{Plugins: []PluginConfiguration{
		{Type: PluginTypeBackend, InstanceName: "b"},
	}}
	assert.Error(t, cfg.Validate())

	cfg = SimulatorConfiguration{Plugins: []PluginConfiguration{
		{Type: PluginTypeOperator, InstanceName: "a"},
		{Type: PluginTypeBackend, InstanceName: "b"},
	}}
	assert.Error(t, cfg.Validate())

	cfg = SimulatorConfiguration{Plugins: []PluginConfiguration{
		{Type: PluginTypeFrontend, InstanceName: "f"},
		{Type: PluginTypeOperator, InstanceName: "o"},
		{Type: PluginTypeBackend, InstanceName: "b"},
	}}
	assert.NoError(t, cfg.Validate())
}

func TestRandomSeedIsNonDeterministicAcrossCalls(t *testing.T) {
	a, err := RandomSeed()
	require.NoError(t, err)
	b, err := RandomSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
