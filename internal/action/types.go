// Package action holds the core data model shared across the pipeline
// (spec §3): Snip Context, Action, Action Menu, Action Result, and the
// Pipeline Session that ties them together.
package action

import "time"

// RecognitionLevel is the OCR collaborator's fidelity tag.
type RecognitionLevel string

const (
	RecognitionFast     RecognitionLevel = "fast"
	RecognitionAccurate RecognitionLevel = "accurate"
)

// Anchor is a user-visible screen position for placing the action menu.
type Anchor struct {
	X int
	Y int
}

// SnipContext is the immutable bundle produced by the capture collaborator.
type SnipContext struct {
	Text             string
	Confidence       float64
	RecognitionLevel RecognitionLevel
	Platform         string
	SourceApp        string
	WindowTitle      string
	Anchor           Anchor
}

// ContentType is the closed tag set CLASSIFY assigns to a snip.
type ContentType string

const (
	ContentError   ContentType = "error"
	ContentCode    ContentType = "code"
	ContentTable   ContentType = "table"
	ContentList    ContentType = "list"
	ContentProse   ContentType = "prose"
	ContentKVPairs ContentType = "kv_pairs"
	ContentMixed   ContentType = "mixed"
	ContentUnknown ContentType = "unknown"
)

// Action is an offer presented to the user in the Action Menu.
type Action struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	Icon              string `json:"icon"`
	Priority          int    `json:"priority"`
	Description       string `json:"description"`
	RequiresExecution bool   `json:"requiresExecution"`
}

// ActionMenu is the result of CLASSIFY (spec §3). Invariant: Actions is
// never empty.
type ActionMenu struct {
	ContentType      ContentType `json:"contentType"`
	Confidence       float64     `json:"confidence"`
	Summary          string      `json:"summary"`
	DetectedLanguage *string     `json:"detectedLanguage,omitempty"`
	Actions          []Action    `json:"actions"`
	// RedactionAnnotation is set when the outbound classify prompt was
	// redacted, so the UI can surface a user-visible annotation (§4.1).
	RedactionAnnotation string `json:"redactionAnnotation,omitempty"`
}

// Fallback returns the constant fallback Action Menu (spec §7), used
// whenever CLASSIFY output fails to parse.
func Fallback() ActionMenu {
	return ActionMenu{
		ContentType: ContentUnknown,
		Confidence:  0,
		Summary:     "Could not analyze content",
		Actions: []Action{
			{ID: "copy_text", Label: "Copy Text", Icon: "clipboard", Priority: 1, Description: "Copy the extracted text to clipboard", RequiresExecution: false},
			{ID: "explain", Label: "Explain This", Icon: "lightbulb", Priority: 2, Description: "Explain what this content means", RequiresExecution: true},
			{ID: "search_web", Label: "Search Web", Icon: "search", Priority: 3, Description: "Search for this text online", RequiresExecution: false},
		},
	}
}

// ResultStatus is the outcome of EXECUTE.
type ResultStatus string

const (
	StatusSuccess          ResultStatus = "success"
	StatusError            ResultStatus = "error"
	StatusNeedsConfirmation ResultStatus = "needs_confirmation"
)

// ResultKind tags the ResultBody variant.
type ResultKind string

const (
	KindText      ResultKind = "text"
	KindFile      ResultKind = "file"
	KindCommand   ResultKind = "command"
	KindClipboard ResultKind = "clipboard"
)

// ResultBody is the tagged union payload of an Action Result. Kind's wire
// tag is "type", not "resultType" — it must match the literal key name
// the EXECUTE prompt's response_format instructs the model to emit.
type ResultBody struct {
	Kind ResultKind `json:"type"`

	Text string `json:"text,omitempty"`

	FileName string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
	MimeType string `json:"mimeType,omitempty"`

	Command string `json:"command,omitempty"`

	ClipboardContent string `json:"clipboardContent,omitempty"`
}

// ResultMetadata carries optional token usage and processing notes.
type ResultMetadata struct {
	TokensUsed     int    `json:"tokensUsed,omitempty"`
	ProcessingNote string `json:"processingNote,omitempty"`
}

// ActionResult is the result of EXECUTE (spec §3).
type ActionResult struct {
	Status   ResultStatus    `json:"status"`
	ActionID string          `json:"actionId"`
	Result   ResultBody      `json:"result"`
	Metadata *ResultMetadata `json:"metadata,omitempty"`
}

// ErrorResult builds a status:error Action Result carrying a human reason
// as its text body — the constructor original_source/llm/execute.rs calls
// ActionResult::error().
func ErrorResult(actionID, reason string) ActionResult {
	return ActionResult{
		Status:   StatusError,
		ActionID: actionID,
		Result:   ResultBody{Kind: KindText, Text: reason},
	}
}

// Phase is a Pipeline Session's current state (spec §4.9).
type Phase string

const (
	PhaseOCR         Phase = "ocr"
	PhaseClassify    Phase = "classify"
	PhaseAwaitClick  Phase = "await_click"
	PhaseExecute     Phase = "execute"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Session is per-snip (or per-typed-command) pipeline state.
type Session struct {
	ID         string
	Snip       SnipContext
	Phase      Phase
	Menu       *ActionMenu
	SelectedID string
	Result     *ActionResult
	StartedAt  time.Time
	FailReason string

	// CropImage retains the source snip's encoded image so a fix action
	// can request a second, higher-fidelity OCR pass without asking the
	// capture collaborator to re-crop the screen. Empty for typed-command
	// sessions, which never had an image.
	CropImage []byte
}
