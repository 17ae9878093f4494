package llmtransport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaTransport drives a local Ollama server. IsRemote is always false:
// this is the one transport the safety layer never redacts for (spec
// §4.1). Grounded on hkdb-otui/ollama/client.go's
// api.ChatRequest{Stream: true} callback pattern.
type OllamaTransport struct {
	client *api.Client
	model  string
}

// NewOllamaTransport builds a transport against baseURL (defaults to
// "http://localhost:11434") for model (defaults to "llama3.1:latest").
func NewOllamaTransport(baseURL, model string) (*OllamaTransport, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1:latest"
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama transport: invalid base URL: %w", err)
	}

	return &OllamaTransport{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}, nil
}

func (t *OllamaTransport) StreamClassify(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, onChunk)
}

func (t *OllamaTransport) StreamExecute(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, onChunk)
}

func (t *OllamaTransport) stream(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	stream := true
	req := &api.ChatRequest{
		Model: t.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		Stream: &stream,
	}

	var usage Usage
	respFunc := func(resp api.ChatResponse) error {
		if resp.Message.Content != "" && onChunk != nil {
			if err := onChunk(Chunk{Text: resp.Message.Content}); err != nil {
				return err
			}
		}
		if resp.Done {
			usage = Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
			if onChunk != nil {
				return onChunk(Chunk{Done: true})
			}
		}
		return nil
	}

	if err := t.client.Chat(ctx, req, respFunc); err != nil {
		return Usage{}, fmt.Errorf("ollama transport: %w", err)
	}
	return usage, nil
}

func (t *OllamaTransport) IsRemote() bool { return false }
func (t *OllamaTransport) Label() string  { return "ollama" }
