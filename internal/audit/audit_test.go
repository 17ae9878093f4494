package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omni-glass/omniglass/internal/safety"
)

func TestOpenCreatesSchema(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
}

func TestRecordRedactionInsertsOneRowPerLabel(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	counts := map[safety.Label]int{safety.LabelCreditCard: 2, safety.LabelSSN: 1}
	require.NoError(t, s.RecordRedaction(context.Background(), "sess-1", counts))

	var n int
	row := s.db.QueryRow(`SELECT COUNT(*) FROM redaction_events WHERE session_id = ?`, "sess-1")
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 2, n)
}

func TestRecordBlocklistHitAndRecentBlocklistHits(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.RecordBlocklistHit(ctx, "sess-1", "rm -rf /", "recursive delete rooted at / or the home directory"))
	require.NoError(t, s.RecordBlocklistHit(ctx, "sess-2", "mkfs.ext4 /dev/sda1", "filesystem format command"))

	hits, err := s.RecentBlocklistHits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "sess-2", hits[0].SessionID, "expected the most recently recorded hit first")
}

func TestRecentBlocklistHitsRespectsLimit(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordBlocklistHit(ctx, "sess", "passwd root", "password change"))
	}

	hits, err := s.RecentBlocklistHits(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestRecordTokenUsage(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordTokenUsage(context.Background(), "sess-1", "classify", 120, 45))

	var inputTokens, outputTokens int
	row := s.db.QueryRow(`SELECT input_tokens, output_tokens FROM token_usage WHERE session_id = ? AND phase = ?`, "sess-1", "classify")
	require.NoError(t, row.Scan(&inputTokens, &outputTokens))
	assert.Equal(t, 120, inputTokens)
	assert.Equal(t, 45, outputTokens)
}

func TestOpenTwiceOnSameDataDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	first.Close()

	second, err := Open(dir)
	require.NoError(t, err, "re-opening an existing audit database should run the migration cleanly")
	defer second.Close()
}
