package llmtransport

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicTransport drives Claude's streaming Messages API. Grounded on
// hkdb-otui/provider/anthropic.go's NewStreaming/stream.Next()/
// msg.Accumulate/event.AsAny() pattern, restructured around the fixed
// system+user two-message shape the CLASSIFY/EXECUTE contract needs
// instead of arbitrary multi-turn chat.
type AnthropicTransport struct {
	client            *anthropic.Client
	model             anthropic.Model
	classifyMaxTokens int64
	executeMaxTokens  int64
}

// NewAnthropicTransport builds a transport for model, reading apiKey from
// the caller (internal/config resolves it from ANTHROPIC_API_KEY per
// spec §6). baseURL defaults to the public API.
func NewAnthropicTransport(baseURL, apiKey, model string, classifyMaxTokens, executeMaxTokens int64) (*AnthropicTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic transport: API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicTransport{
		client:            &client,
		model:             anthropic.Model(model),
		classifyMaxTokens: classifyMaxTokens,
		executeMaxTokens:  executeMaxTokens,
	}, nil
}

func (t *AnthropicTransport) StreamClassify(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, t.classifyMaxTokens, onChunk)
}

func (t *AnthropicTransport) StreamExecute(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, t.executeMaxTokens, onChunk)
}

func (t *AnthropicTransport) stream(ctx context.Context, systemPrompt, userMessage string, maxTokens int64, onChunk StreamFunc) (Usage, error) {
	params := anthropic.MessageNewParams{
		Model:     t.model,
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
		},
	}

	stream := t.client.Messages.NewStreaming(ctx, params)
	msg := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return Usage{}, fmt.Errorf("anthropic transport: accumulate: %w", err)
		}

		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && onChunk != nil {
				if err := onChunk(Chunk{Text: delta.Text}); err != nil {
					return Usage{}, err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return Usage{}, fmt.Errorf("anthropic transport: streaming error: %w", err)
	}

	if onChunk != nil {
		if err := onChunk(Chunk{Done: true}); err != nil {
			return Usage{}, err
		}
	}

	return Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}

func (t *AnthropicTransport) IsRemote() bool { return true }
func (t *AnthropicTransport) Label() string  { return "anthropic" }
