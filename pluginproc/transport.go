// Package pluginproc manages one plugin's lifecycle from the host side: the
// transport that reaches it (a spawned process or an in-process goroutine),
// the init/accept handshake, and the request/response correlation used by
// arb() and the run loop. Grounded on filegrind-capns-go's plugin_host.go.
package pluginproc

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/razvnane/dqcsim/wire"
)

// Transport is a duplex byte stream to a plugin, plus a way to tear it down.
type Transport interface {
	Reader() io.Reader
	Writer() io.Writer
	Close() error
}

// processTransport spawns an executable and speaks the protocol over its
// stdin/stdout.
type processTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

// SpawnProcess starts path as a child process, wiring stderr according to
// passStderr (true inherits this process's stderr, false discards it; tee
// capture is handled by the caller reading TeeFile-style from a pipe, not
// by this transport).
func SpawnProcess(path string, args []string, passStderr bool) (Transport, error) {
	cmd := exec.Command(path, args...)
	if passStderr {
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = nil
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdin pipe for %s: %w", path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open stdout pipe for %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	return &processTransport{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (p *processTransport) Reader() io.Reader { return p.stdout }
func (p *processTransport) Writer() io.Writer { return p.stdin }

func (p *processTransport) Close() error {
	_ = p.stdin.Close()
	_ = p.stdout.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return p.cmd.Wait()
}

// pipeTransport connects to an in-process plugin over an io.Pipe, used for
// test doubles and other in-process plugins.
type pipeTransport struct {
	r io.Reader
	w io.WriteCloser
}

// NewLoopback returns a pair of Transports, each one end of a pair of
// io.Pipes, connected so writes on one side are reads on the other. One end
// is meant for the host, the other for an in-process plugin runtime.
// Closing either end's Writer delivers EOF to the other end's Reader,
// which is what stops the peer's request loop.
func NewLoopback() (host Transport, plugin Transport) {
	hostR, pluginW := io.Pipe()
	pluginR, hostW := io.Pipe()
	host = &pipeTransport{r: hostR, w: hostW}
	plugin = &pipeTransport{r: pluginR, w: pluginW}
	return host, plugin
}

func (p *pipeTransport) Reader() io.Reader { return p.r }
func (p *pipeTransport) Writer() io.Writer { return p.w }
func (p *pipeTransport) Close() error {
	_ = p.w.Close()
	return nil
}

// endpoint bundles a Transport with the framed reader/writer built on it.
type endpoint struct {
	t Transport
	r *wire.FrameReader
	w *wire.FrameWriter
}

func newEndpoint(t Transport) *endpoint {
	return &endpoint{t: t, r: wire.NewFrameReader(t.Reader()), w: wire.NewFrameWriter(t.Writer())}
}
