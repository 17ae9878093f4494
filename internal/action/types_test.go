package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMatchesSpecConstant(t *testing.T) {
	fb := Fallback()

	assert.Equal(t, ContentUnknown, fb.ContentType)
	assert.Zero(t, fb.Confidence)
	assert.Equal(t, "Could not analyze content", fb.Summary)
	require.Len(t, fb.Actions, 3)

	wantIDs := []string{"copy_text", "explain", "search_web"}
	for i, id := range wantIDs {
		assert.Equal(t, id, fb.Actions[i].ID)
	}
}

func TestFallbackActionsNeverEmpty(t *testing.T) {
	fb := Fallback()
	require.NotEmpty(t, fb.Actions, "ActionMenu invariant violated: Actions must never be empty")
}

func TestErrorResultShape(t *testing.T) {
	r := ErrorResult("explain", "OCR text was empty")
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, "explain", r.ActionID)
	assert.Equal(t, KindText, r.Result.Kind)
	assert.Equal(t, "OCR text was empty", r.Result.Text)
}
