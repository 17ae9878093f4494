package jsonskeleton

import "strings"

// ExtractStringField recovers a single string field's value from a raw
// buffer that may not be valid JSON at all — typically a response
// truncated mid-stream by a max-tokens cutoff. It scans for `"key"`
// occurrences, skips any that aren't followed by a colon (a match inside
// some other field's value rather than as a key), and reads the quoted
// string that follows the colon, tolerating a missing closing quote.
//
// This is the supplement to the strict-parse path for EXECUTE responses,
// which spec.md's fallback rule covers only for CLASSIFY.
func ExtractStringField(raw, key string) (string, bool) {
	needle := `"` + key + `"`
	searchFrom := 0

	for {
		idx := strings.Index(raw[searchFrom:], needle)
		if idx < 0 {
			return "", false
		}
		absPos := searchFrom + idx
		afterKey := strings.TrimLeft(raw[absPos+len(needle):], " \t\r\n")

		if !strings.HasPrefix(afterKey, ":") {
			searchFrom = absPos + len(needle)
			continue
		}

		afterColon := strings.TrimLeft(afterKey[1:], " \t\r\n")
		if !strings.HasPrefix(afterColon, `"`) {
			return "", false
		}
		content := afterColon[1:]

		var end int
		for end = 0; end < len(content); end++ {
			if content[end] == '"' && (end == 0 || content[end-1] != '\\') {
				return unescapeJSONString(content[:end]), true
			}
		}
		// No closing quote: the stream was cut off inside this value.
		// Return the truncated remainder rather than nothing.
		return unescapeJSONString(content), true
	}
}

func unescapeJSONString(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	return s
}
