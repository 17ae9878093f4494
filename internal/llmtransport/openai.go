package llmtransport

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAITransport drives any OpenAI-compatible chat-completions endpoint.
// Grounded on hkdb-otui/provider/openai.go's
// Chat.Completions.NewStreaming/ChatCompletionAccumulator pattern.
type OpenAITransport struct {
	client openai.Client
	model  string
}

// NewOpenAITransport builds a transport for model. baseURL defaults to
// the public OpenAI API but may point at any compatible endpoint.
func NewOpenAITransport(baseURL, apiKey, model string) (*OpenAITransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai transport: API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAITransport{client: client, model: model}, nil
}

func (t *OpenAITransport) StreamClassify(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, onChunk)
}

func (t *OpenAITransport) StreamExecute(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	return t.stream(ctx, systemPrompt, userMessage, onChunk)
}

func (t *OpenAITransport) stream(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
	}

	stream := t.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if onChunk != nil {
				if err := onChunk(Chunk{Text: chunk.Choices[0].Delta.Content}); err != nil {
					return Usage{}, err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return Usage{}, fmt.Errorf("openai transport: streaming error: %w", err)
	}

	if onChunk != nil {
		if err := onChunk(Chunk{Done: true}); err != nil {
			return Usage{}, err
		}
	}

	return Usage{
		InputTokens:  int(acc.Usage.PromptTokens),
		OutputTokens: int(acc.Usage.CompletionTokens),
	}, nil
}

func (t *OpenAITransport) IsRemote() bool { return true }
func (t *OpenAITransport) Label() string  { return "openai" }
