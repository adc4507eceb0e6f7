package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// MessageId correlates a request with its response. It is either a random
// UUID (used for frontend/operator/backend RPCs, so concurrently in-flight
// peer-initiated requests never collide) or a uint64 (used for the
// handshake's fixed HELLO exchange, which always uses 0).
type MessageId struct {
	uuidBytes []byte
	uintValue *uint64
}

// NewMessageIdRandom returns a random UUID-based MessageId.
func NewMessageIdRandom() MessageId {
	id := uuid.New()
	b, _ := id.MarshalBinary()
	return MessageId{uuidBytes: b}
}

// NewMessageIdFromUint returns a uint64-based MessageId.
func NewMessageIdFromUint(v uint64) MessageId {
	return MessageId{uintValue: &v}
}

// IsUuid reports whether this id is UUID-based.
func (m MessageId) IsUuid() bool { return m.uuidBytes != nil }

// ToString renders the id for use as a map key.
func (m MessageId) ToString() string {
	if m.uuidBytes != nil {
		id, err := uuid.FromBytes(m.uuidBytes)
		if err == nil {
			return id.String()
		}
	}
	if m.uintValue != nil {
		return fmt.Sprintf("u%d", *m.uintValue)
	}
	return "u0"
}

// Equals reports whether two MessageIds refer to the same message.
func (m MessageId) Equals(o MessageId) bool {
	if m.uuidBytes != nil && o.uuidBytes != nil {
		return string(m.uuidBytes) == string(o.uuidBytes)
	}
	if m.uintValue != nil && o.uintValue != nil {
		return *m.uintValue == *o.uintValue
	}
	return false
}

// wireMessageId is the CBOR-serializable representation: exactly one of the
// two fields is present.
type wireMessageId struct {
	Uuid []byte  `cbor:"uuid,omitempty"`
	Uint *uint64 `cbor:"uint,omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (m MessageId) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(wireMessageId{Uuid: m.uuidBytes, Uint: m.uintValue})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (m *MessageId) UnmarshalCBOR(data []byte) error {
	var w wireMessageId
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	m.uuidBytes = w.Uuid
	m.uintValue = w.Uint
	return nil
}
