// Package heuristics detects table and code structure in OCR text to
// inform CLASSIFY (spec §4.2).
package heuristics

import "strings"

// Flags are the two structural signals passed into the CLASSIFY prompt.
type Flags struct {
	HasTableStructure bool
	HasCodeStructure  bool
}

// Detect computes both structural flags for the given OCR text.
func Detect(text string) Flags {
	return Flags{
		HasTableStructure: DetectTableStructure(text),
		HasCodeStructure:  DetectCodeStructure(text),
	}
}

// DetectTableStructure reports whether text looks like tabular data:
// a majority of non-empty lines share a tab or pipe delimiter, or their
// whitespace-run boundaries cluster into aligned columns.
func DetectTableStructure(text string) bool {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return false
	}
	total := len(lines)

	tabLines := 0
	pipeLines := 0
	for _, l := range lines {
		if strings.Contains(l, "\t") {
			tabLines++
		}
		if strings.Contains(l, "|") {
			pipeLines++
		}
	}
	if tabLines > total/2 {
		return true
	}
	if pipeLines > total/2 {
		return true
	}

	return hasAlignedWhitespaceColumns(lines, total)
}

// hasAlignedWhitespaceColumns looks for a run of space-boundary positions
// that recur, within a tolerance of 2 characters, across a majority of
// lines relative to the first line's boundaries.
func hasAlignedWhitespaceColumns(lines []string, total int) bool {
	positions := make([][]int, 0, len(lines))
	for _, line := range lines {
		positions = append(positions, spaceRunStarts(line))
	}
	if len(positions) < 2 || len(positions[0]) == 0 {
		return false
	}

	first := positions[0]
	aligned := 0
	for _, ps := range positions {
		for _, p := range ps {
			if closeToAny(p, first, 2) {
				aligned++
				break
			}
		}
	}
	return aligned > total/2
}

// spaceRunStarts returns the byte offset of each run of spaces that isn't
// at the very start of the line.
func spaceRunStarts(line string) []int {
	var positions []int
	inSpaces := false
	for i, ch := range line {
		if ch == ' ' {
			if !inSpaces && i > 0 {
				positions = append(positions, i)
			}
			inSpaces = true
		} else {
			inSpaces = false
		}
	}
	return positions
}

func closeToAny(p int, others []int, tolerance int) bool {
	for _, o := range others {
		diff := p - o
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return true
		}
	}
	return false
}

var codeKeywordPrefixes = []string{
	"import ", "from ", "const ", "let ", "var ", "function ",
	"def ", "class ", "if ", "for ", "while ", "return ",
}

var codeErrorPrefixes = []string{"Error", "Traceback", "Exception", "at "}

// DetectCodeStructure reports whether text looks like source code or a
// stack trace. It requires at least two of five independent signals:
// language keywords at line start, lines ending in a bracket/semicolon,
// multiple indented lines, error/traceback markers, or comment markers.
func DetectCodeStructure(text string) bool {
	lines := strings.Split(text, "\n")

	indicators := []func([]string) bool{
		hasKeywordLine,
		hasBracketTerminatedLine,
		hasMultipleIndentedLines,
		hasErrorMarkerLine,
		hasCommentMarkerLine,
	}

	matches := 0
	for _, indicator := range indicators {
		if indicator(lines) {
			matches++
		}
	}
	return matches >= 2
}

func hasKeywordLine(lines []string) bool {
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		for _, kw := range codeKeywordPrefixes {
			if strings.HasPrefix(trimmed, kw) {
				return true
			}
		}
	}
	return false
}

func hasBracketTerminatedLine(lines []string) bool {
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		last := trimmed[len(trimmed)-1]
		if last == '{' || last == '}' || last == ')' || last == ';' {
			return true
		}
	}
	return false
}

func hasMultipleIndentedLines(lines []string) bool {
	count := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "  ") || strings.HasPrefix(l, "\t") {
			count++
		}
	}
	return count > 1
}

func hasErrorMarkerLine(lines []string) bool {
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		for _, prefix := range codeErrorPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				return true
			}
		}
		if strings.Contains(trimmed, "error[E") || strings.Contains(trimmed, "panic!") {
			return true
		}
	}
	return false
}

func hasCommentMarkerLine(lines []string) bool {
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
			return true
		}
	}
	return false
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
