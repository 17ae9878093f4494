package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var debug bool

// rootCmd is the omniglassd entry point: a desktop-local daemon fronting
// the NDJSON host-command loop the UI collaborator drives over
// stdin/stdout (spec §6).
var rootCmd = &cobra.Command{
	Use:   "omniglassd",
	Short: "Omni-Glass action engine daemon",
	Long: `omniglassd is the headless action engine behind Omni-Glass: it owns
the CLASSIFY/EXECUTE pipeline, the plugin process supervisor, the safety
guardrails, and the audit ledger. The UI collaborator talks to it over
NDJSON on stdin/stdout; this binary has no window of its own.

Run without a subcommand to start the host-command loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pluginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
