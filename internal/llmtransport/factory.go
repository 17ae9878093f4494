package llmtransport

import (
	"fmt"
	"os"

	"github.com/omni-glass/omniglass/internal/config"
)

// apiKeyEnvVar maps provider id to the environment variable its key is
// read from (spec §6: "provider API keys are read from well-known
// environment variables"). Grounded on the teacher's NewProvider(cfg)
// factory in hkdb-otui/provider/interface.go, generalised from a
// hardcoded switch into a per-provider-config lookup.
var apiKeyEnvVar = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// APIKeyEnvVar returns the environment variable providerID's API key is
// read from, and whether that provider needs one at all (ollama does not).
func APIKeyEnvVar(providerID string) (string, bool) {
	v, ok := apiKeyEnvVar[providerID]
	return v, ok
}

// New builds the Transport named by providerID using pc's base URL and
// model. Ollama needs no API key; anthropic/openai read theirs from the
// environment variable named in apiKeyEnvVar.
func New(providerID string, pc config.ProviderConfig, classifyMaxTokens, executeMaxTokens int64) (Transport, error) {
	switch providerID {
	case "anthropic":
		return NewAnthropicTransport(pc.BaseURL, os.Getenv(apiKeyEnvVar["anthropic"]), pc.Model, classifyMaxTokens, executeMaxTokens)
	case "openai":
		return NewOpenAITransport(pc.BaseURL, os.Getenv(apiKeyEnvVar["openai"]), pc.Model)
	case "ollama":
		return NewOllamaTransport(pc.BaseURL, pc.Model)
	default:
		return nil, fmt.Errorf("llmtransport: unknown provider %q", providerID)
	}
}
