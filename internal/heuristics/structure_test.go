package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTableStructureTabDelimited(t *testing.T) {
	text := "Name\tRole\tSalary\nAlice\tEngineer\t150000\nBob\tManager\t180000"
	assert.True(t, DetectTableStructure(text), "expected tab-delimited text to be detected as a table")
}

func TestDetectTableStructurePipeDelimited(t *testing.T) {
	text := "a | b | c\n1 | 2 | 3\n4 | 5 | 6"
	assert.True(t, DetectTableStructure(text), "expected pipe-delimited text to be detected as a table")
}

func TestDetectTableStructureRejectsProse(t *testing.T) {
	text := "This is just a normal sentence.\nAnd another one here."
	assert.False(t, DetectTableStructure(text), "expected prose to not be detected as a table")
}

func TestDetectCodeStructureTraceback(t *testing.T) {
	text := "Traceback (most recent call last):\n  File \"analysis.py\", line 3\n    import panda as pd\nModuleNotFoundError: No module named 'panda'"
	assert.True(t, DetectCodeStructure(text), "expected python traceback to be detected as code")
}

func TestDetectCodeStructureRejectsSingleSignal(t *testing.T) {
	text := "return on investment was high this quarter."
	assert.False(t, DetectCodeStructure(text), "expected a single weak signal to not trigger code detection")
}

func TestDetectCodeStructureJavascript(t *testing.T) {
	text := "function main() {\n  const x = 1;\n  return x;\n}"
	assert.True(t, DetectCodeStructure(text), "expected javascript-like snippet to be detected as code")
}
