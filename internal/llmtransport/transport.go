// Package llmtransport defines the provider-polymorphic capability
// contract of spec §4.4/§9 — a single interface with StreamClassify,
// StreamExecute, IsRemote, and Label — and the concrete Anthropic,
// OpenAI-compatible, and Ollama implementations. IsRemote is the single
// branch point the safety layer checks before deciding whether to
// redact outbound text (spec §4.1).
//
// Generalises the teacher's model.Provider (hkdb-otui/model/provider.go)
// from a generic multi-turn chat interface down to the two fixed
// operations this pipeline actually performs.
package llmtransport

import "context"

// Chunk is one increment of a streaming LLM response.
type Chunk struct {
	Text string
	Done bool
}

// StreamFunc receives each chunk as it arrives. A non-nil error aborts
// the stream.
type StreamFunc func(chunk Chunk) error

// Usage reports token accounting for a completed call (spec §4.9:
// "Record token usage").
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Transport is the capability contract every LLM backend implements.
type Transport interface {
	// StreamClassify runs the CLASSIFY call: systemPrompt is
	// prompt.ClassifySystemPrompt, userMessage is
	// prompt.BuildClassifyMessage's output. Each text delta is delivered
	// to onChunk as it streams.
	StreamClassify(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error)

	// StreamExecute runs the EXECUTE call with the same streaming
	// contract as StreamClassify.
	StreamExecute(ctx context.Context, systemPrompt, userMessage string, onChunk StreamFunc) (Usage, error)

	// IsRemote reports whether this transport leaves the local machine.
	// The safety layer redacts outbound text only when IsRemote is true
	// (spec §4.1).
	IsRemote() bool

	// Label is a short human-readable provider name for logging and the
	// UI's provider indicator.
	Label() string
}
