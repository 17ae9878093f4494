package jsonskeleton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedEmitsSkeletonOnceBothFieldsPresent(t *testing.T) {
	e := New()

	chunks := []string{
		`{"content`,
		`Type": "error", "conf`,
		`idence": 0.9, "summ`,
		`ary": "A stack trace",`,
		` "actions": [`,
	}

	var emitted bool
	var skel Skeleton
	for _, c := range chunks {
		s, ok := e.Feed(c)
		if ok {
			require.False(t, emitted, "skeleton emitted more than once")
			emitted = true
			skel = s
		}
	}

	require.True(t, emitted, "expected a skeleton to be emitted")
	assert.Equal(t, "error", skel.ContentType)
	assert.Equal(t, "A stack trace", skel.Summary)
}

func TestFeedEmitsAtMostOnce(t *testing.T) {
	e := New()
	full := `{"contentType": "prose", "summary": "hello", "actions": []}`

	count := 0
	for i := 1; i <= len(full); i++ {
		if _, ok := e.Feed(full[i-1 : i]); ok {
			count++
		}
	}
	assert.Equal(t, 1, count, "expected the skeleton to be emitted exactly once")
}

func TestFeedNoSkeletonForInvalidStream(t *testing.T) {
	e := New()
	garbage := "not json at all, no braces here"
	_, ok := e.Feed(garbage)
	assert.False(t, ok, "expected no skeleton for a stream with no valid JSON prefix")
	assert.False(t, e.Delivered(), "Delivered() should be false when nothing was emitted")
}

func TestFeedIgnoresBracesInsideStrings(t *testing.T) {
	e := New()
	chunk := `{"summary": "contains a { brace", "contentType": "code"}`
	skel, ok := e.Feed(chunk)
	require.True(t, ok, "expected skeleton to be emitted")
	assert.Equal(t, "contains a { brace", skel.Summary)
}
