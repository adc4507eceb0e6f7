package pluginrt

import (
	"fmt"
	"os"

	"github.com/razvnane/dqcsim/wire"
)

// ServeStdio runs rt's request loop on os.Stdin/os.Stdout until the host
// closes the connection, for use as the entire body of a plugin binary's
// main function. Unlike Serve, it blocks the calling goroutine.
func ServeStdio(rt *Runtime) error {
	r := wire.NewFrameReader(os.Stdin)
	w := wire.NewFrameWriter(os.Stdout)

	if _, err := wire.HandshakeAccept(r, w); err != nil {
		return fmt.Errorf("plugin handshake: %w", err)
	}

	for {
		env, err := r.ReadEnvelope()
		if err != nil {
			return nil
		}
		if err := rt.dispatch(env, w); err != nil {
			if werr := w.WriteErr(env.Id, "PluginFailure", err.Error()); werr != nil {
				return werr
			}
		}
	}
}
