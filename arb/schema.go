package arb

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaError reports that a Data.Json value failed validation against a
// cap's declared schema.
type SchemaError struct {
	Key     string
	Details []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed for %s: %v", e.Key, e.Details)
}

// SchemaRegistry holds optional JSON Schema (draft-7) documents keyed by
// "iface.oper", against which Validate checks an ArbCmd's Data.Json.
// Registration is opt-in: Validate passes a key with no registered schema
// unchecked, preserving the "opaque payload" contract for everyone else.
// Validation happens only where a caller calls Validate; the orchestrator
// and the plugin runtime do not call it.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]gojsonschema.JSONLoader
}

// NewSchemaRegistry creates an empty registry.
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]gojsonschema.JSONLoader)}
}

// Register installs a draft-7 JSON Schema document for the given
// interface/operation pair.
func (r *SchemaRegistry) Register(iface, oper string, schemaJSON []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[iface+"."+oper] = gojsonschema.NewBytesLoader(schemaJSON)
}

// Validate checks cmd.Data.Json against any registered schema for its key.
// Returns nil if no schema is registered.
func (r *SchemaRegistry) Validate(cmd Cmd) error {
	r.mu.RLock()
	schemaLoader, ok := r.schemas[cmd.Key()]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	payload := cmd.Data.Json
	if payload == nil {
		payload = []byte("null")
	}
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaError{Key: cmd.Key(), Details: []string{err.Error()}}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &SchemaError{Key: cmd.Key(), Details: details}
	}
	return nil
}
