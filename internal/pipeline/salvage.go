package pipeline

import (
	"github.com/omni-glass/omniglass/internal/action"
	"github.com/omni-glass/omniglass/internal/jsonskeleton"
)

// salvageActionResult recovers a usable Action Result from a response
// that was not strictly parseable JSON — usually because EXECUTE's
// max_tokens budget cut the stream off mid-document. Ported from
// original_source/llm/execute.rs's salvage_text_from_json: the one field
// that matters to the user (the text body) is pulled out with tolerant
// string scanning rather than abandoned to a parse error, since spec.md
// defines no fallback Action Result the way it defines a fallback Action
// Menu. Returns false if even the text field can't be recovered.
func salvageActionResult(raw, actionID string) (action.ActionResult, bool) {
	text, ok := jsonskeleton.ExtractStringField(raw, "text")
	if !ok {
		return action.ActionResult{}, false
	}

	status, ok := jsonskeleton.ExtractStringField(raw, "status")
	if !ok || status == "" {
		status = string(action.StatusSuccess)
	}
	resultType, ok := jsonskeleton.ExtractStringField(raw, "type")
	if !ok || resultType == "" {
		resultType = string(action.KindText)
	}
	command, hasCommand := jsonskeleton.ExtractStringField(raw, "command")

	body := action.ResultBody{Kind: action.ResultKind(resultType), Text: text}
	if hasCommand {
		body.Command = command
	}

	return action.ActionResult{
		Status:   action.ResultStatus(status),
		ActionID: actionID,
		Result:   body,
		Metadata: &action.ResultMetadata{ProcessingNote: "recovered from a truncated response"},
	}, true
}
