package pipelineerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientErrorAs(t *testing.T) {
	base := errors.New("connection reset")
	err := Transient("classify.stream", base)

	var te *TransientError
	require.ErrorAs(t, err, &te, "expected errors.As to match *TransientError")
	assert.ErrorIs(t, err, base, "expected Unwrap to expose the base error")
}

func TestPluginErrorCarriesID(t *testing.T) {
	err := Plugin("com.example.plugin", errors.New("handshake timed out"))
	var pe *PluginError
	require.ErrorAs(t, err, &pe, "expected errors.As to match *PluginError")
	assert.Equal(t, "com.example.plugin", pe.PluginID)
}

func TestPolicyAndUserErrorsAreLeaves(t *testing.T) {
	assert.NoError(t, errors.Unwrap(Policy("blocklist match")), "PolicyError should not unwrap further")
	assert.NoError(t, errors.Unwrap(User("cancelled")), "UserError should not unwrap further")
}
