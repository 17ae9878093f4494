// Package dispatch implements the Result Dispatcher of spec §4.10: it
// interprets a completed Action Result by kind and performs (or defers,
// for command results, to a confirmation gate) the corresponding side
// effect — copying to the clipboard, writing a file, or running a shell
// command.
//
// Grounded on original_source/pipeline.rs's command-result handling
// (blocklist-before-spawn sequencing) and hkdb-otui/ui/appview_update.go's
// use of atotto/clipboard for its own copy-to-clipboard key bindings.
package dispatch

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/action"
)

// Dispatcher performs the side effect a completed Action Result calls
// for. It implements pipeline.ResultDispatcher structurally — dispatch
// never imports pipeline, avoiding a cycle, since Go interface
// satisfaction needs no explicit declaration.
type Dispatcher struct {
	logger     *zap.Logger
	desktopDir string
}

// New creates a Dispatcher that writes file results under desktopDir.
func New(desktopDir string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger, desktopDir: desktopDir}
}

// Dispatch performs the automatic half of §4.10's table: clipboard
// results are copied silently, file results are written to disk. Command
// results are intentionally left untouched here — spec §4.10 requires a
// confirmation modal between the LLM's proposal and any shell spawn, so
// RunConfirmedCommand is the only path that ever execs a command. Text
// results have no side effect; the UI renders them directly.
func (d *Dispatcher) Dispatch(ctx context.Context, result action.ActionResult) error {
	switch result.Result.Kind {
	case action.KindClipboard:
		if err := clipboard.WriteAll(result.Result.ClipboardContent); err != nil {
			return fmt.Errorf("dispatch: copying to clipboard: %w", err)
		}
		d.logger.Info("copied result to clipboard", zap.String("action_id", result.ActionID))
		return nil

	case action.KindFile:
		path, err := d.WriteToDesktop(result.Result.FileName, result.Result.Content)
		if err != nil {
			return fmt.Errorf("dispatch: writing file result: %w", err)
		}
		d.logger.Info("wrote file result", zap.String("action_id", result.ActionID), zap.String("path", path))
		return nil

	case action.KindCommand:
		// Deliberately a no-op: awaiting user confirmation.
		return nil

	case action.KindText:
		return nil

	default:
		return fmt.Errorf("dispatch: unknown result kind %q", result.Result.Kind)
	}
}
