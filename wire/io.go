package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// FrameReader reads length-prefixed CBOR envelopes from a stream.
type FrameReader struct {
	r      io.Reader
	limits Limits
}

// NewFrameReader wraps r with default limits.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, limits: DefaultLimits()}
}

// SetLimits updates the negotiated limits used to bound incoming frames.
func (fr *FrameReader) SetLimits(l Limits) { fr.limits = l }

// ReadEnvelope reads and decodes a single Envelope.
func (fr *FrameReader) ReadEnvelope() (*Envelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if int(length) > MaxFrameHardLimit {
		return nil, fmt.Errorf("frame size %d exceeds hard limit %d", length, MaxFrameHardLimit)
	}
	if fr.limits.MaxFrame > 0 && int(length) > fr.limits.MaxFrame {
		return nil, fmt.Errorf("frame size %d exceeds negotiated limit %d", length, fr.limits.MaxFrame)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		return nil, err
	}

	var env Envelope
	if err := cbor.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// FrameWriter writes length-prefixed CBOR envelopes to a stream.
type FrameWriter struct {
	w      io.Writer
	limits Limits
}

// NewFrameWriter wraps w with default limits.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w, limits: DefaultLimits()}
}

// SetLimits updates the negotiated limits used to bound outgoing frames.
func (fw *FrameWriter) SetLimits(l Limits) { fw.limits = l }

// WriteEnvelope encodes and writes a single Envelope.
func (fw *FrameWriter) WriteEnvelope(env *Envelope) error {
	buf, err := cbor.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if fw.limits.MaxFrame > 0 && len(buf) > fw.limits.MaxFrame {
		return fmt.Errorf("encoded frame size %d exceeds negotiated limit %d", len(buf), fw.limits.MaxFrame)
	}
	if len(buf) > MaxFrameHardLimit {
		return fmt.Errorf("encoded frame size %d exceeds hard limit %d", len(buf), MaxFrameHardLimit)
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := fw.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = fw.w.Write(buf)
	return err
}

// WriteMessage CBOR-encodes payload and writes it as an Envelope of the
// given kind, correlated by id.
func (fw *FrameWriter) WriteMessage(id MessageId, kind Kind, payload interface{}) error {
	body, err := cbor.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return fw.WriteEnvelope(&Envelope{Version: ProtocolVersion, Kind: kind, Id: id, Payload: body})
}

// WriteErr writes an Error envelope correlated to id.
func (fw *FrameWriter) WriteErr(id MessageId, kind string, message string) error {
	return fw.WriteMessage(id, KindError, ErrorPayload{Kind: kind, Message: message})
}

// Decode unmarshals an Envelope's payload into out.
func (env *Envelope) Decode(out interface{}) error {
	return cbor.Unmarshal(env.Payload, out)
}
