package llmtransport

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omni-glass/omniglass/internal/config"
)

func TestNewOllamaNeedsNoAPIKey(t *testing.T) {
	tr, err := New("ollama", config.ProviderConfig{BaseURL: "http://localhost:11434", Model: "llama3.1:latest"}, 512, 1024)
	require.NoError(t, err)
	assert.False(t, tr.IsRemote(), "ollama transport must report IsRemote() == false")
	assert.Equal(t, "ollama", tr.Label())
}

func TestNewAnthropicRequiresAPIKey(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")
	_, err := New("anthropic", config.ProviderConfig{}, 512, 1024)
	assert.Error(t, err, "expected error when ANTHROPIC_API_KEY is unset")
}

func TestNewAnthropicSucceedsWithAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	tr, err := New("anthropic", config.ProviderConfig{}, 512, 1024)
	require.NoError(t, err)
	assert.True(t, tr.IsRemote(), "anthropic transport must report IsRemote() == true")
}

func TestNewUnknownProviderErrors(t *testing.T) {
	_, err := New("bogus", config.ProviderConfig{}, 512, 1024)
	assert.Error(t, err, "expected error for unknown provider id")
}
