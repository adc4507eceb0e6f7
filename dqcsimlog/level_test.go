package dqcsimlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnablesRespectsOff(t *testing.T) {
	assert.False(t, Enables(Off, Fatal))
	assert.False(t, Enables(Off, Pass))
}

func TestEnablesPassAlwaysEnabled(t *testing.T) {
	assert.True(t, Enables(Fatal, Pass))
}

func TestEnablesThresholdOrdering(t *testing.T) {
	assert.True(t, Enables(Info, Warn))
	assert.True(t, Enables(Info, Info))
	assert.False(t, Enables(Info, Debug))
}
