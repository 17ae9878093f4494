package pipeline

import (
	"context"

	"github.com/omni-glass/omniglass/internal/action"
)

// ResultDispatcher hands a completed Action Result to the Result
// Dispatcher (spec §4.10). The orchestrator never spawns a shell or
// touches the clipboard itself; it only decides, per §4.9's execute
// phase, when a result is safe to hand off.
type ResultDispatcher interface {
	Dispatch(ctx context.Context, result action.ActionResult) error
}
