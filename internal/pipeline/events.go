package pipeline

import "github.com/omni-glass/omniglass/internal/action"

// SkeletonEvent is the early, partial publication of the forthcoming
// Action Menu (GLOSSARY: "Skeleton event"). It strictly precedes the
// Action Menu event for the same session (spec §5 ordering guarantee).
type SkeletonEvent struct {
	SessionID   string
	ContentType string
	Summary     string
}

// MenuEvent is the complete Action Menu, published once classify's
// stream ends and either strictly parses or falls back.
type MenuEvent struct {
	SessionID string
	Menu      action.ActionMenu
}

// ResultEvent is the complete Action Result, published once execute's
// stream ends.
type ResultEvent struct {
	SessionID string
	Result    action.ActionResult
}

// FailedEvent reports a session's transition to the failed phase.
type FailedEvent struct {
	SessionID string
	Phase     action.Phase
	Reason    string
}

// EventSink receives the UI-facing events a session publishes as it
// progresses. All methods are invoked synchronously from the session's
// own goroutine, in order, so an implementation need not be reentrant
// across sessions if it serialises internally — but it must not block
// the caller indefinitely, since a misbehaving sink would stall the
// pipeline (spec §5: "no queueing... required").
type EventSink interface {
	OnSkeleton(SkeletonEvent)
	OnMenu(MenuEvent)
	OnResult(ResultEvent)
	OnFailed(FailedEvent)
}

// NopEventSink discards every event. Useful for the typed-command path
// in tests or headless invocations that only care about the return value.
type NopEventSink struct{}

func (NopEventSink) OnSkeleton(SkeletonEvent) {}
func (NopEventSink) OnMenu(MenuEvent)         {}
func (NopEventSink) OnResult(ResultEvent)     {}
func (NopEventSink) OnFailed(FailedEvent)     {}
