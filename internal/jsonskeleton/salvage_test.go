package jsonskeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStringFieldFullDocument(t *testing.T) {
	raw := `{"status":"success","result":{"type":"text","text":"hello world"}}`
	got, ok := ExtractStringField(raw, "text")
	require.True(t, ok)
	assert.Equal(t, "hello world", got)
}

func TestExtractStringFieldTruncatedMidValue(t *testing.T) {
	raw := `{"status":"success","result":{"type":"text","text":"the fix is to run pip inst`
	got, ok := ExtractStringField(raw, "text")
	require.True(t, ok, "expected a truncated-but-present value to be recoverable")
	assert.Equal(t, "the fix is to run pip inst", got)
}

func TestExtractStringFieldHandlesEscapes(t *testing.T) {
	raw := `{"text":"line one\nline two \"quoted\""}`
	got, ok := ExtractStringField(raw, "text")
	require.True(t, ok, "expected extraction to succeed")
	assert.Equal(t, "line one\nline two \"quoted\"", got)
}

func TestExtractStringFieldMissingKeyFails(t *testing.T) {
	raw := `{"status":"success"}`
	_, ok := ExtractStringField(raw, "text")
	assert.False(t, ok, "expected missing key to fail")
}

func TestExtractStringFieldSkipsKeyAppearingAsValue(t *testing.T) {
	raw := `{"note":"the field is called \"text\"","text":"actual value"}`
	got, ok := ExtractStringField(raw, "text")
	require.True(t, ok)
	assert.Equal(t, "actual value", got)
}
