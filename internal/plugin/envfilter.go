package plugin

import (
	"fmt"
	"os"
)

// essentialVars are passed to every plugin process regardless of its
// declared permissions, grounded on
// original_source/mcp/sandbox/env_filter.rs's ESSENTIAL_VARS.
var essentialVars = []string{
	"PATH", "HOME", "USER", "LANG", "TERM", "SHELL",
	"NODE_PATH",
	"PYTHONPATH",
}

// FilterEnvironment builds the environment a plugin process receives:
// essential runtime vars, the plugin's identity and a private TMPDIR,
// and only the environment variables it explicitly declared in its
// manifest's Permissions.Environment. This is the most important
// security boundary for plugin isolation — it works on every platform,
// unlike the macOS-only sandbox profile.
func FilterEnvironment(p Permissions, pluginID string) map[string]string {
	filtered := make(map[string]string, len(essentialVars)+len(p.Environment)+2)

	for _, key := range essentialVars {
		if val, ok := os.LookupEnv(key); ok {
			filtered[key] = val
		}
	}

	filtered["OMNI_GLASS_PLUGIN_ID"] = pluginID
	filtered["TMPDIR"] = fmt.Sprintf("/tmp/omni-glass-%s", pluginID)

	for _, name := range p.Environment {
		if val, ok := os.LookupEnv(name); ok {
			filtered[name] = val
		}
	}

	return filtered
}

// EnvironmentSlice renders a filtered environment map as a "KEY=VALUE"
// slice suitable for exec.Cmd.Env.
func EnvironmentSlice(filtered map[string]string) []string {
	out := make([]string, 0, len(filtered))
	for k, v := range filtered {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}
