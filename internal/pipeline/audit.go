package pipeline

import (
	"context"

	"github.com/omni-glass/omniglass/internal/safety"
)

// AuditSink is the orchestrator's narrow view of internal/audit.Store —
// narrow enough that a test can fake it without pulling in sqlite. Spec
// §8 requires redaction events, blocklist hits, and token usage to be
// observable after the fact; this interface is where the orchestrator
// reports each one as it happens.
type AuditSink interface {
	RecordRedaction(ctx context.Context, sessionID string, counts map[safety.Label]int) error
	RecordBlocklistHit(ctx context.Context, sessionID, command, reason string) error
	RecordTokenUsage(ctx context.Context, sessionID, phase string, inputTokens, outputTokens int) error
}
