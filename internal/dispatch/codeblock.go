package dispatch

import "strings"

// ExtractFirstCodeBlock finds the first ``` fenced block in text and
// returns its contents (the info string on the opening fence, if any, is
// discarded). Backs the "copy the fix" button spec §4.10 describes for
// text results whose body contains a fenced code block.
func ExtractFirstCodeBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	afterOpen := start + 3
	// Skip the language tag on the opening fence, if any, up to its
	// newline.
	if nl := strings.IndexByte(text[afterOpen:], '\n'); nl >= 0 {
		afterOpen += nl + 1
	}

	end := strings.Index(text[afterOpen:], "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimRight(text[afterOpen:afterOpen+end], "\n"), true
}
