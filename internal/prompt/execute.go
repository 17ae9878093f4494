package prompt

import "strings"

// ExecuteMaxTokens bounds the second LLM call, per spec §4.3 and
// original_source/llm/prompts_execute.rs.
const ExecuteMaxTokens = 1024

// ExecuteSystemPrompt instructs the LLM to perform the selected action on
// the extracted text and return a structured Action Result.
const ExecuteSystemPrompt = `You are the action executor for Omni-Glass, a desktop AI utility. The user snipped a region of their screen, the OCR layer extracted text, and the user selected a specific action to perform on that text. Your job is to execute that action and return a structured JSON result.

<role>
You execute actions on extracted screen text. You return structured JSON results. You do NOT make up information — if you can't perform the action, say so in the result.
</role>

<rules>
1. ALWAYS respond with valid JSON matching the ActionResult schema below.
2. For "text" results: provide clear, concise, actionable explanations (3-8 sentences).
3. For "command" results: ALWAYS set status to "needs_confirmation". Never assume commands should auto-execute.
4. For "file" results: provide the complete file content in the text field.
5. For "command" results: suggest the simplest, safest command. Prefer package managers over manual installs.
6. NEVER suggest destructive commands (rm -rf, format, dd, etc.).
7. NEVER include API keys, credentials, or sensitive data in your response.
8. If the extracted text is insufficient to perform the action, return status "error" with an explanation.
</rules>

<response_format>
{
  "status": "success" | "error" | "needs_confirmation",
  "actionId": "<the action that was requested>",
  "result": {
    "type": "text" | "file" | "command" | "clipboard",
    "text": "<explanation text or file content>",
    "filename": "<suggested filename for file results>",
    "command": "<shell command for command results>",
    "mimeType": "<MIME type for file results>"
  },
  "metadata": {
    "processingNote": "<optional note about the result>"
  }
}
</response_format>`

// Per-action EXECUTE user message templates, carried over verbatim from
// original_source/llm/prompts_execute.rs.
const (
	promptExplainError = `Action: explain_error

Analyze this error message or stack trace and explain:
1. What the error means in plain English
2. Why it likely occurred
3. The most common cause

Keep the explanation concise (3-5 sentences). A developer is reading this.

Return result type "text" with your explanation.

<extracted_text>
{extracted_text}
</extracted_text>`

	promptExplain = `Action: explain

Explain this content clearly and concisely:
1. What this content is
2. Key information or meaning
3. Any important context

Keep the explanation concise (3-5 sentences). Be helpful, not verbose.

Return result type "text" with your explanation.

<extracted_text>
{extracted_text}
</extracted_text>`

	promptSuggestFix = `Action: suggest_fix

Analyze this error and suggest a fix command.

Platform: {platform}
Shell: {detected_shell}

Requirements:
- Suggest ONE command that is most likely to fix the issue
- Prefer package manager commands (pip install, npm install, brew install, cargo add, etc.)
- The command must be safe and non-destructive
- Set status to "needs_confirmation" — the user must approve before execution
- Include a brief explanation of what the command does and why

Return result type "command" with the fix command.

<extracted_text>
{extracted_text}
</extracted_text>`

	promptExportCSV = `Action: export_csv

Extract the tabular data from this text and format it as a valid CSV file.

Requirements:
- Detect column headers and data rows
- Use comma as delimiter, double-quote fields that contain commas
- Include a header row
- If the data isn't clearly tabular, do your best to extract structured rows
- Suggest a descriptive filename (e.g., "sales_data_export.csv")

Return result type "file" with mimeType "text/csv".
Put the CSV content in the "text" field.
Put the suggested filename in the "filename" field.

<extracted_text>
{extracted_text}
</extracted_text>`

	promptGenericTool = `Action: {action_id}

A plugin tool has been selected for this content. Decide what arguments the
tool needs from the extracted text below, and describe in one sentence what
you expect the tool to do. The host will invoke the tool directly; your
response is only used to report the outcome back to the user.

Return result type "text" summarizing what you asked the tool to do.

<extracted_text>
{extracted_text}
</extracted_text>`
)

// actionTemplateAliases maps action ids (and their common aliases, as
// original_source/llm/prompts_execute.rs's build_execute_message does) to
// the EXECUTE template that should drive that action.
var actionTemplateAliases = map[string]string{
	"explain_error": promptExplainError,
	"explain_script": promptExplainError,
	"explain_code":   promptExplainError,

	"explain":    promptExplain,
	"explain_this": promptExplain,
	"review_ocr": promptExplain,

	"suggest_fix": promptSuggestFix,
	"fix_error":   promptSuggestFix,
	"fix_syntax":  promptSuggestFix,
	"fix_code":    promptSuggestFix,

	"export_csv":    promptExportCSV,
	"export_to_csv": promptExportCSV,
	"extract_data":  promptExportCSV,
}

// BuildExecuteMessage selects the action's template and fills in its
// placeholders. A plugin-qualified action id ("plugin_id:tool_name") that
// has no dedicated template falls back to promptGenericTool rather than
// the generic explain, since a tool call needs its own framing.
func BuildExecuteMessage(actionID, extractedText, platform, detectedShell string) string {
	template, ok := actionTemplateAliases[actionID]
	if !ok {
		if strings.Contains(actionID, ":") {
			template = promptGenericTool
		} else {
			template = promptExplain
		}
	}

	out := strings.ReplaceAll(template, "{extracted_text}", extractedText)
	out = strings.ReplaceAll(out, "{platform}", platform)
	out = strings.ReplaceAll(out, "{detected_shell}", detectedShell)
	out = strings.ReplaceAll(out, "{action_id}", actionID)
	return out
}
