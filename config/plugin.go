// Package config parses the configuration that seeds an Orchestrator: the
// plugin pipeline definition, logging verbosity, and the random seed,
// grounded on dqcsim's own configuration/simulator.rs.
package config

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/dqcsimlog"
	derrors "github.com/razvnane/dqcsim/errors"
)

// PluginType is the role a pipeline entry plays. Unlike the Rust source's
// enum-to-C-ABI conversion (which silently folds an invalid discriminant to
// Frontend), an out-of-range or unrecognized PluginType is always rejected
// as InvArg — see spec.md §9 Open Question (a).
type PluginType int

const (
	// PluginTypeInvalid marks a PluginType that was never set or was
	// decoded from an unrecognized value.
	PluginTypeInvalid PluginType = iota
	PluginTypeFrontend
	PluginTypeOperator
	PluginTypeBackend
)

func (t PluginType) String() string {
	switch t {
	case PluginTypeFrontend:
		return "frontend"
	case PluginTypeOperator:
		return "operator"
	case PluginTypeBackend:
		return "backend"
	default:
		return "invalid"
	}
}

// ParsePluginType rejects anything but the three legal role names.
func ParsePluginType(s string) (PluginType, error) {
	switch s {
	case "frontend":
		return PluginTypeFrontend, nil
	case "operator":
		return PluginTypeOperator, nil
	case "backend":
		return PluginTypeBackend, nil
	default:
		return PluginTypeInvalid, derrors.New(derrors.InvArg, "unrecognized plugin type %q", s)
	}
}

// UnmarshalYAML implements yaml.Unmarshaler so a bad role in a config file
// fails to parse instead of silently becoming "frontend".
func (t *PluginType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	pt, err := ParsePluginType(s)
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t PluginType) MarshalYAML() (interface{}, error) {
	if t == PluginTypeInvalid {
		return nil, fmt.Errorf("cannot marshal invalid plugin type")
	}
	return t.String(), nil
}

// StreamCaptureMode describes how a spawned plugin's stderr is handled.
// Only Pass is consulted when a plugin process is spawned: with Pass the
// child inherits this process's stderr, otherwise its stderr is discarded.
// Null and Capture are parsed and stored but not acted on. A plugin's
// stdout always carries the wire protocol.
type StreamCaptureMode struct {
	// Pass lets stderr through unchecked to this process's own stderr.
	Pass bool `yaml:"pass,omitempty"`
	// Null selects discarding the stream.
	Null bool `yaml:"null,omitempty"`
	// Capture names a log level for captured stream lines.
	Capture dqcsimlog.Level `yaml:"capture,omitempty"`
}

// PluginConfiguration describes one pipeline entry before it is spawned.
type PluginConfiguration struct {
	Type PluginType `yaml:"type"`
	// Path is the plugin executable. Empty means an in-process plugin
	// registered separately via pluginrt, used for tests and loopback
	// frontends/backends.
	Path string `yaml:"path,omitempty"`
	// InstanceName is the host-assigned label used by arb()/arb_idx() and
	// get_metadata() to address this plugin, distinct from the plugin's
	// self-reported Name in PluginMetadata.
	InstanceName string `yaml:"instance_name"`
	// InitCmds are ArbCmds sent to the plugin during its init handshake,
	// e.g. to configure it before the pipeline starts running.
	InitCmds []arb.Cmd `yaml:"init_cmds,omitempty"`
	// Verbosity is this plugin's own log verbosity.
	Verbosity dqcsimlog.Level `yaml:"verbosity"`
	// StreamCapture controls stderr handling for spawned processes.
	StreamCapture StreamCaptureMode `yaml:"stream_capture,omitempty"`
}

// Seed is the run's random seed, recorded in reproduction files. It is not
// sent to plugins: InitRequest carries no seed.
type Seed uint64

// RandomSeed draws a seed from a cryptographically secure source.
func RandomSeed() (Seed, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate random seed: %w", err)
	}
	return Seed(binary.LittleEndian.Uint64(buf[:])), nil
}

// SimulatorConfiguration is the complete configuration for a run, grounded
// on dqcsim/src/configuration/simulator.rs.
type SimulatorConfiguration struct {
	Seed Seed `yaml:"seed"`

	// StderrLevel is the verbosity for logging messages to stderr.
	StderrLevel dqcsimlog.Level `yaml:"stderr_level"`
	// DqcsimLevel is the verbosity for the core's own log messages.
	DqcsimLevel dqcsimlog.Level `yaml:"dqcsim_level"`
	// TeeFiles additionally mirrors log messages to files.
	TeeFiles []dqcsimlog.TeeFile `yaml:"tee_files,omitempty"`

	// Plugins are the pipeline entries in front-to-back order: index 0 is
	// the frontend, the last is the backend.
	Plugins []PluginConfiguration `yaml:"plugins"`
}

// Default returns a configuration with sensible logging defaults and an
// empty (invalid, until populated) plugin list.
func Default() SimulatorConfiguration {
	return SimulatorConfiguration{
		StderrLevel: dqcsimlog.Info,
		DqcsimLevel: dqcsimlog.Info,
	}
}

// OptimizeLoglevels clamps DqcsimLevel and every plugin's Verbosity to no
// more verbose than the most verbose sink (stderr or a tee file), since
// anything more verbose than every configured sink can see would be wasted
// work relaying it.
func (c *SimulatorConfiguration) OptimizeLoglevels() {
	max := c.StderrLevel
	for _, tee := range c.TeeFiles {
		if tee.Filter > max {
			max = tee.Filter
		}
	}
	if c.DqcsimLevel > max {
		c.DqcsimLevel = max
	}
	for i := range c.Plugins {
		if c.Plugins[i].Verbosity > max {
			c.Plugins[i].Verbosity = max
		}
	}
}

// Validate checks structural requirements that are cheap to catch before
// ever spawning a process: at least a frontend and a backend, and legal
// plugin types in legal positions.
func (c *SimulatorConfiguration) Validate() error {
	if len(c.Plugins) < 2 {
		return fmt.Errorf("simulation must consist of at least a frontend and backend, got %d plugin(s)", len(c.Plugins))
	}
	for i, p := range c.Plugins {
		if p.Type == PluginTypeInvalid {
			return fmt.Errorf("plugin %d: invalid plugin type", i)
		}
		if i == 0 && p.Type != PluginTypeFrontend {
			return fmt.Errorf("plugin 0 must be the frontend, got %s", p.Type)
		}
		if i == len(c.Plugins)-1 && p.Type != PluginTypeBackend {
			return fmt.Errorf("last plugin must be the backend, got %s", p.Type)
		}
		if i > 0 && i < len(c.Plugins)-1 && p.Type != PluginTypeOperator {
			return fmt.Errorf("plugin %d must be an operator, got %s", i, p.Type)
		}
	}
	return nil
}
