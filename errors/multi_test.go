package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiErrorJoinsWithSemicolon(t *testing.T) {
	var m MultiError
	assert.True(t, m.Empty())
	assert.Nil(t, m.OrNil())

	m.Add("frontend", fmt.Errorf("connection refused"))
	m.Add("backend", fmt.Errorf("exec: not found"))

	err := m.OrNil()
	assert.Error(t, err)
	assert.Equal(t, "frontend: connection refused; backend: exec: not found", err.Error())
}
