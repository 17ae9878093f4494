package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the host-command loop on stdin/stdout",
	Long: `serve builds the daemon's full pipeline — config, transport, tool
registry, plugin supervisor, and audit ledger — then reads NDJSON
host commands from stdin and writes NDJSON responses and events to
stdout until the UI collaborator closes the pipe or a termination
signal arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	a, err := buildApp(debug)
	if err != nil {
		return err
	}
	defer a.close()

	locked, pid, err := checkInstanceLock(a.cfg.DataDir())
	if err != nil {
		a.logger.Warn("failed to check instance lock", zap.Error(err))
	}
	if locked {
		return fmt.Errorf("omniglassd is already running (pid %d)", pid)
	}
	if err := lockInstance(a.cfg.DataDir()); err != nil {
		return err
	}
	defer func() {
		if err := unlockInstance(a.cfg.DataDir()); err != nil {
			a.logger.Warn("failed to remove instance lock", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := newHostLoop(a, os.Stdout)
	a.logger.Info("omniglassd ready", zap.String("data_dir", a.cfg.DataDir()), zap.String("provider", a.cfg.DefaultProvider))
	return loop.run(ctx, os.Stdin)
}
