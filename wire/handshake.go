package wire

import "fmt"

// HandshakeInitiate performs the HELLO exchange from the side that dials
// out (the orchestrator connecting to a plugin, or an upstream plugin
// connecting to its downstream neighbor). It sends this side's limits and
// returns the negotiated limits once the peer has replied.
func HandshakeInitiate(r *FrameReader, w *FrameWriter) (Limits, error) {
	id := NewMessageIdFromUint(0)
	if err := w.WriteMessage(id, KindHello, HelloPayload{Limits: DefaultLimits()}); err != nil {
		return Limits{}, fmt.Errorf("write HELLO: %w", err)
	}

	env, err := r.ReadEnvelope()
	if err != nil {
		return Limits{}, fmt.Errorf("read HELLO response: %w", err)
	}
	if env.Kind != KindHello {
		return Limits{}, fmt.Errorf("expected HELLO response, got %s", env.Kind)
	}
	var hello HelloPayload
	if err := env.Decode(&hello); err != nil {
		return Limits{}, fmt.Errorf("decode HELLO response: %w", err)
	}

	negotiated := Negotiate(DefaultLimits(), hello.Limits)
	r.SetLimits(negotiated)
	w.SetLimits(negotiated)
	return negotiated, nil
}

// HandshakeAccept performs the HELLO exchange from the side that accepted
// the connection (a plugin process, addressed by the orchestrator or by its
// upstream neighbor).
func HandshakeAccept(r *FrameReader, w *FrameWriter) (Limits, error) {
	env, err := r.ReadEnvelope()
	if err != nil {
		return Limits{}, fmt.Errorf("read HELLO: %w", err)
	}
	if env.Kind != KindHello {
		return Limits{}, fmt.Errorf("expected HELLO, got %s", env.Kind)
	}
	var hello HelloPayload
	if err := env.Decode(&hello); err != nil {
		return Limits{}, fmt.Errorf("decode HELLO: %w", err)
	}

	id := NewMessageIdFromUint(0)
	if err := w.WriteMessage(id, KindHello, HelloPayload{Limits: DefaultLimits()}); err != nil {
		return Limits{}, fmt.Errorf("write HELLO response: %w", err)
	}

	negotiated := Negotiate(DefaultLimits(), hello.Limits)
	r.SetLimits(negotiated)
	w.SetLimits(negotiated)
	return negotiated, nil
}
