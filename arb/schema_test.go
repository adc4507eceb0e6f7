package arb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaRegistryUnregisteredPassesUnchecked(t *testing.T) {
	reg := NewSchemaRegistry()
	cmd, err := NewCmd("info", "ping", Data{Json: json.RawMessage(`"anything"`)})
	require.NoError(t, err)
	assert.NoError(t, reg.Validate(cmd))
}

func TestSchemaRegistryValidatesRegisteredSchema(t *testing.T) {
	reg := NewSchemaRegistry()
	reg.Register("info", "ping", []byte(`{"type": "integer"}`))

	cmd, err := NewCmd("info", "ping", Data{Json: json.RawMessage(`42`)})
	require.NoError(t, err)
	assert.NoError(t, reg.Validate(cmd))

	bad, err := NewCmd("info", "ping", Data{Json: json.RawMessage(`"not an int"`)})
	require.NoError(t, err)
	err = reg.Validate(bad)
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}
