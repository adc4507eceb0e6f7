// Package dqcsim is the host-side facade: it owns one Orchestrator and
// presents the five-operation accelerator API (start/wait/send/recv/yield)
// plus arb addressing and metadata lookup, grounded on
// dqcsim-api/src/bindings/external/host/sim.rs's dqcs_sim_* C ABI wrappers.
package dqcsim

import (
	"fmt"
	"os"

	"github.com/razvnane/dqcsim/arb"
	"github.com/razvnane/dqcsim/config"
	"github.com/razvnane/dqcsim/dqcsimlog"
	"github.com/razvnane/dqcsim/host"
	"gopkg.in/yaml.v3"
)

// Accelerator is the simulation handle exposed to a host application.
type Accelerator interface {
	Start(data arb.Data) error
	Wait() (arb.Data, error)
	Send(data arb.Data)
	Recv() (arb.Data, error)
	Yield() error

	Arb(name string, cmd arb.Cmd) (arb.Data, error)
	ArbIdx(idx int, cmd arb.Cmd) (arb.Data, error)
	GetMetadata(name string) (host.PluginMetadata, error)
	GetMetadataIdx(idx int) (host.PluginMetadata, error)

	Close() error
}

// Simulation wraps an Orchestrator and the log thread that serves it,
// tying their lifetimes together behind the Accelerator interface.
type Simulation struct {
	orc *host.Orchestrator
	log *dqcsimlog.Thread
	cfg config.SimulatorConfiguration
}

var _ Accelerator = (*Simulation)(nil)

// New builds the log sink, spawns and initializes the pipeline, and
// returns a ready-to-use Simulation. runtimes registers in-process
// plugins by instance name; any plugin configured with a non-empty Path
// and no matching entry is spawned as a subprocess instead.
func New(cfg config.SimulatorConfiguration, runtimes host.InProcessRuntimes) (*Simulation, error) {
	cfg.OptimizeLoglevels()

	logOpts := []dqcsimlog.Option{dqcsimlog.WithStderrLevel(cfg.StderrLevel)}
	for _, tee := range cfg.TeeFiles {
		logOpts = append(logOpts, dqcsimlog.WithTeeFile(tee))
	}
	logThread, err := dqcsimlog.New(logOpts...)
	if err != nil {
		return nil, fmt.Errorf("start log thread: %w", err)
	}

	orc, err := host.New(cfg, runtimes)
	if err != nil {
		_ = logThread.Close()
		return nil, err
	}

	return &Simulation{orc: orc, log: logThread, cfg: cfg}, nil
}

func (s *Simulation) Start(data arb.Data) error                 { return s.orc.Start(data) }
func (s *Simulation) Wait() (arb.Data, error)                   { return s.orc.Wait() }
func (s *Simulation) Send(data arb.Data)                        { s.orc.Send(data) }
func (s *Simulation) Recv() (arb.Data, error)                   { return s.orc.Recv() }
func (s *Simulation) Yield() error                              { return s.orc.Yield() }
func (s *Simulation) Arb(name string, cmd arb.Cmd) (arb.Data, error) { return s.orc.Arb(name, cmd) }
func (s *Simulation) ArbIdx(idx int, cmd arb.Cmd) (arb.Data, error)  { return s.orc.ArbIdx(idx, cmd) }
func (s *Simulation) GetMetadata(name string) (host.PluginMetadata, error) {
	return s.orc.GetMetadata(name)
}
func (s *Simulation) GetMetadataIdx(idx int) (host.PluginMetadata, error) {
	return s.orc.GetMetadataIdx(idx)
}

// Close tears down the pipeline in reverse order and stops the log
// thread. Go has no deterministic destructors, so callers must call this
// explicitly (e.g. via defer) once the simulation is no longer needed.
func (s *Simulation) Close() error {
	orcErr := s.orc.Close()
	logErr := s.log.Close()
	if orcErr != nil {
		return orcErr
	}
	return logErr
}

// reproductionFile is the on-disk shape written by WriteReproductionFile:
// the configured seed and plugin list of a SimulatorConfiguration. New
// never draws a seed itself, so the seed is whatever cfg.Seed held.
type reproductionFile struct {
	Seed    config.Seed                    `yaml:"seed"`
	Plugins []config.PluginConfiguration `yaml:"plugins"`
}

// WriteReproductionFile records cfg to path as YAML so a failing run can
// be replayed later with the same seed and pipeline.
func WriteReproductionFile(path string, cfg config.SimulatorConfiguration) error {
	out := reproductionFile{Seed: cfg.Seed, Plugins: cfg.Plugins}
	body, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal reproduction file: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}

// LoadReproductionFile reads back a file written by WriteReproductionFile
// and merges it into an otherwise-default configuration.
func LoadReproductionFile(path string) (config.SimulatorConfiguration, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return config.SimulatorConfiguration{}, fmt.Errorf("read reproduction file: %w", err)
	}
	var in reproductionFile
	if err := yaml.Unmarshal(body, &in); err != nil {
		return config.SimulatorConfiguration{}, fmt.Errorf("parse reproduction file: %w", err)
	}
	cfg := config.Default()
	cfg.Seed = in.Seed
	cfg.Plugins = in.Plugins
	return cfg, nil
}
