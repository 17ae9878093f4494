package plugin

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GenerateMacOSSandboxProfile builds a sandbox-exec (.sb) profile
// implementing the "Broad System Allowlist" model: deny everything, allow
// broad system reads, wall off all of /Users, then selectively re-allow
// the runtime prefix, the plugin directory, its private temp dir, and any
// manifest-declared paths. This is a supplemented feature (§4.6) ported
// from original_source/mcp/sandbox/macos.rs; sandbox-exec is deprecated
// by Apple but remains the only process-level sandbox primitive available
// without a signed system extension.
func GenerateMacOSSandboxProfile(m Manifest, pluginDir, runtimePrefix, runtimeBinary string) string {
	home, _ := os.UserHomeDir()
	tmpDir := fmt.Sprintf("/private/tmp/omni-glass-%s", m.ID)

	var b strings.Builder
	b.WriteString("(version 1)\n(deny default)\n\n")

	b.WriteString(";; System-wide reads (runtimes need hundreds of OS paths)\n")
	b.WriteString("(allow file-read* (subpath \"/\"))\n\n")

	b.WriteString(";; WALL OFF user data (LLM stdout = exfiltration vector)\n")
	b.WriteString("(deny file-read* (subpath \"/Users\"))\n\n")

	if runtimePrefix != "" {
		fmt.Fprintf(&b, ";; Re-allow: runtime prefix\n(allow file-read* (subpath %q))\n\n", runtimePrefix)
	}

	fmt.Fprintf(&b, ";; Re-allow: plugin directory\n(allow file-read* (subpath %q))\n\n", pluginDir)

	if runtimeBinary != "" {
		fmt.Fprintf(&b, ";; Runtime binary\n(allow process-exec (literal %q))\n\n", runtimeBinary)
	}

	b.WriteString(";; stdio writes\n")
	for _, dev := range []string{"/dev/stdout", "/dev/stderr", "/dev/null"} {
		fmt.Fprintf(&b, "(allow file-write* (literal %q))\n", dev)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, ";; Plugin temp directory\n(allow file-read* (subpath %q))\n(allow file-write* (subpath %q))\n\n", tmpDir, tmpDir)

	b.WriteString("(allow sysctl-read)\n\n")

	if len(m.Permissions.Network) > 0 {
		b.WriteString(";; Network (coarse: domain filtering not possible)\n")
		b.WriteString("(allow network-outbound)\n(allow network-inbound)\n(allow network* (local ip \"localhost:*\"))\n\n")
	}

	if len(m.Permissions.Filesystem) > 0 {
		b.WriteString(";; Declared filesystem access\n")
		for _, perm := range m.Permissions.Filesystem {
			expanded := perm.Path
			if home != "" {
				expanded = strings.ReplaceAll(expanded, "~", home)
			}
			switch strings.ToLower(perm.Access) {
			case "write", "read-write":
				fmt.Fprintf(&b, "(allow file-read* (subpath %q))\n(allow file-write* (subpath %q))\n", expanded, expanded)
			case "read":
				fmt.Fprintf(&b, "(allow file-read* (subpath %q))\n", expanded)
			}
		}
		b.WriteString("\n")
	}

	if len(m.Permissions.Shell) > 0 {
		b.WriteString(";; Declared shell commands\n")
		b.WriteString("(allow process-fork)\n")
		b.WriteString("(allow process-exec (literal \"/bin/sh\"))\n")
		b.WriteString("(allow process-exec (literal \"/bin/bash\"))\n")
		fmt.Fprintf(&b, "(allow file-write* (subpath %q))\n", tmpDir)
		for _, cmd := range m.Permissions.Shell {
			if cmdPath, err := exec.LookPath(cmd); err == nil {
				fmt.Fprintf(&b, "(allow process-exec (literal %q))\n", cmdPath)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteMacOSSandboxProfile writes profile to a per-plugin temp file and
// returns its path, for handing to `sandbox-exec -f <path>`.
func WriteMacOSSandboxProfile(pluginID, profile string) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("omni-glass-sandbox-%s.sb", pluginID))
	if err := os.WriteFile(path, []byte(profile), 0600); err != nil {
		return "", fmt.Errorf("plugin sandbox: writing profile: %w", err)
	}
	return path, nil
}
