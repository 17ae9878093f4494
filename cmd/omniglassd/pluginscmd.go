package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/omni-glass/omniglass/internal/config"
	"github.com/omni-glass/omniglass/internal/plugin"
)

// pluginCmd groups the plugin-approval commands, operated directly
// against the approval record and manifest discovery without needing
// the running daemon — matching the teacher's pattern of a CLI
// subcommand that talks to the same storage the main program uses,
// rather than requiring an RPC round trip.
var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Discover and manage Omni-Glass plugins",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered plugins and their approval status",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifests, loadErrs := plugin.DiscoverPlugins(config.GetPluginsDir())
		for dirName, loadErr := range loadErrs {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", dirName, loadErr)
		}
		store := plugin.LoadApprovalStore(config.GetApprovalRecordPath())

		descriptors := plugin.PendingApprovalDescriptors(store, manifests, config.GetDocumentsDir())
		pendingByID := make(map[string]plugin.PendingApproval, len(descriptors))
		for _, d := range descriptors {
			pendingByID[d.Manifest.ID] = d
		}

		type row struct {
			ID        string               `json:"id"`
			Name      string                `json:"name"`
			Status    plugin.ApprovalStatus `json:"status"`
			Risk      plugin.RiskLevel      `json:"risk,omitempty"`
			RiskScore int                   `json:"riskScore,omitempty"`
		}
		rows := make([]row, 0, len(manifests))
		for _, m := range manifests {
			r := row{ID: m.ID, Name: m.Name, Status: plugin.CheckApproval(store, m)}
			if d, ok := pendingByID[m.ID]; ok {
				r.Risk, r.RiskScore = d.Risk, d.RiskScore
			}
			rows = append(rows, r)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}

var pluginApproveCmd = &cobra.Command{
	Use:   "approve <plugin-id>",
	Short: "Approve a plugin for the permissions in its current manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordDecision(args[0], true)
	},
}

var pluginDenyCmd = &cobra.Command{
	Use:   "deny <plugin-id>",
	Short: "Deny a plugin, preventing it from loading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordDecision(args[0], false)
	},
}

func recordDecision(pluginID string, approved bool) error {
	manifests, _ := plugin.DiscoverPlugins(config.GetPluginsDir())
	var target *plugin.Manifest
	for i := range manifests {
		if manifests[i].ID == pluginID {
			target = &manifests[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no discovered plugin with id %q", pluginID)
	}

	path := config.GetApprovalRecordPath()
	store := plugin.LoadApprovalStore(path)
	if approved {
		plugin.RecordApproval(&store, *target, time.Now())
	} else {
		plugin.RecordDenial(&store, pluginID, time.Now())
	}
	return plugin.SaveApprovalStore(path, store)
}

func init() {
	pluginCmd.AddCommand(pluginListCmd)
	pluginCmd.AddCommand(pluginApproveCmd)
	pluginCmd.AddCommand(pluginDenyCmd)
}
