package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/safety"
)

// CommandTimeout bounds a confirmed command's run time.
const CommandTimeout = 2 * time.Minute

// CommandOutcome is what the confirmation modal shows once a command
// finishes (spec §4.10: "show stdout/stderr and exit code").
type CommandOutcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunConfirmedCommand is the `run_confirmed_command` host command (spec
// §6): it re-checks the blocklist — the second of the two required
// checks, spec §8's invariant — against the exact string the user was
// shown, then spawns it. The command text passed here must be
// byte-identical to what the confirmation dialog displayed; no quoting
// or substitution happens in between (spec §9).
func (d *Dispatcher) RunConfirmedCommand(ctx context.Context, cmd string) (CommandOutcome, error) {
	if check := safety.CheckCommand(cmd); !check.Safe {
		d.logger.Warn("blocklist refused a command at confirmation time", zap.String("reason", check.Reason))
		return CommandOutcome{}, fmt.Errorf("dispatch: command blocked: %s", check.Reason)
	}

	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()

	shell, flag := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd.exe", "/C"
	}

	command := exec.CommandContext(ctx, shell, flag, cmd)
	// No Stdin: the spec forbids attaching the child to an interactive
	// terminal.
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	runErr := command.Run()

	exitCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return CommandOutcome{}, fmt.Errorf("dispatch: spawning command: %w", runErr)
	}

	outcome := CommandOutcome{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
	d.logger.Info("ran confirmed command", zap.Int("exit_code", exitCode))
	return outcome, nil
}
