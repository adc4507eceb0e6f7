package arb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("info"))
	assert.True(t, ValidIdentifier("_private"))
	assert.True(t, ValidIdentifier("a-b_c9"))
	assert.False(t, ValidIdentifier("9abc"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("bad.key"))
}

func TestNewCmdRejectsBadIdentifiers(t *testing.T) {
	_, err := NewCmd("9bad", "oper", Empty())
	assert.Error(t, err)

	_, err = NewCmd("iface", "9bad", Empty())
	assert.Error(t, err)

	cmd, err := NewCmd("info", "ping", Empty())
	require.NoError(t, err)
	assert.Equal(t, "info.ping", cmd.Key())
}

func TestDataCloneIsIndependent(t *testing.T) {
	d := Data{Json: json.RawMessage(`{"a":1}`), Args: [][]byte{[]byte("x")}}
	clone := d.Clone()
	clone.Args[0][0] = 'y'
	assert.Equal(t, byte('x'), d.Args[0][0])
}
