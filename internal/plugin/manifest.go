// Package plugin implements the manifest/permission/risk/approval model
// of spec §4.6: discovering plugin directories, parsing and validating
// their manifests, computing risk level and permissions hash, persisting
// approval decisions, filtering the environment handed to a plugin
// process, and (on macOS) generating a sandbox-exec profile.
package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestFilename is the file every plugin directory must contain.
// Grounded on original_source/mcp/manifest.rs's MANIFEST_FILENAME.
const ManifestFilename = "omni-glass.plugin.json"

// Runtime is the plugin's execution environment.
type Runtime string

const (
	RuntimeNode   Runtime = "node"
	RuntimePython Runtime = "python"
	RuntimeBinary Runtime = "binary"
)

// FSAccess is one filesystem permission entry: a path and whether the
// plugin may read or write it (spec §3: "filesystem (list of
// {path, access})").
type FSAccess struct {
	Path   string `json:"path"`
	Access string `json:"access"` // "read" or "write"
}

// Permissions is the richer record spec §3/§4.6 defines, superseding
// original_source/mcp/manifest.rs's simplified boolean Permissions (see
// DESIGN.md's Open Question decision on this conflict).
type Permissions struct {
	Clipboard   bool       `json:"clipboard,omitempty"`
	Network     []string   `json:"network,omitempty"`    // nil: no network; ["*"]: wildcard; else declared hosts
	Filesystem  []FSAccess `json:"filesystem,omitempty"`
	Environment []string   `json:"environment,omitempty"`
	Shell       []string   `json:"shell,omitempty"` // nil: no shell permission; else allowed command words
}

// Manifest is a parsed, validated plugin manifest.
type Manifest struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description,omitempty"`
	Runtime     Runtime     `json:"runtime"`
	Entry       string      `json:"entry"`
	Permissions Permissions `json:"permissions,omitempty"`

	// Dir is the directory LoadManifest read this manifest from. Not
	// part of the manifest file itself, so it is not JSON-tagged; it is
	// what Spawn needs to find the entry point on disk.
	Dir string `json:"-"`
}

// LoadManifest reads and validates the manifest in pluginDir. Grounded on
// original_source/mcp/manifest.rs's load_manifest/validate.
func LoadManifest(pluginDir string) (Manifest, error) {
	manifestPath := filepath.Join(pluginDir, ManifestFilename)
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("plugin manifest: reading %s: %w", manifestPath, err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("plugin manifest: invalid JSON in %s: %w", manifestPath, err)
	}

	// Permissions is re-decoded on its own with DisallowUnknownFields: spec
	// §6 requires unknown keys inside permissions to be rejected outright
	// rather than silently ignored (a typo'd "clipbord" must not fall back
	// to a false default).
	var envelope struct {
		Permissions json.RawMessage `json:"permissions"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Manifest{}, fmt.Errorf("plugin manifest: invalid JSON in %s: %w", manifestPath, err)
	}
	if len(envelope.Permissions) > 0 {
		dec := json.NewDecoder(bytes.NewReader(envelope.Permissions))
		dec.DisallowUnknownFields()
		var perms Permissions
		if err := dec.Decode(&perms); err != nil {
			return Manifest{}, fmt.Errorf("plugin manifest: unknown key in permissions in %s: %w", manifestPath, err)
		}
		m.Permissions = perms
	}

	if err := validateManifest(m, pluginDir); err != nil {
		return Manifest{}, err
	}
	m.Dir = pluginDir
	return m, nil
}

func validateManifest(m Manifest, pluginDir string) error {
	if m.ID == "" || !strings.Contains(m.ID, ".") {
		return fmt.Errorf("plugin manifest: id %q must be reverse-domain format (e.g. com.example.plugin)", m.ID)
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin manifest: name must not be empty")
	}
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("plugin manifest: version must not be empty")
	}
	switch m.Runtime {
	case RuntimeNode, RuntimePython, RuntimeBinary:
	default:
		return fmt.Errorf("plugin manifest: unknown runtime tag %q", m.Runtime)
	}
	if strings.Contains(m.Entry, "..") {
		return fmt.Errorf("plugin manifest: entry %q must not contain path traversal (..)", m.Entry)
	}

	entryPath := filepath.Join(pluginDir, m.Entry)
	if _, err := os.Stat(entryPath); err != nil {
		return fmt.Errorf("plugin manifest: entry file %q not found in %s", m.Entry, pluginDir)
	}
	return nil
}

// DiscoverPlugins walks the immediate subdirectories of pluginsRoot and
// loads a manifest from each one that has one. A directory with no
// manifest is silently skipped; a directory with an invalid manifest is
// reported but does not stop discovery of the others.
func DiscoverPlugins(pluginsRoot string) (manifests []Manifest, loadErrors map[string]error) {
	loadErrors = make(map[string]error)

	entries, err := os.ReadDir(pluginsRoot)
	if err != nil {
		return nil, loadErrors
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(pluginsRoot, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFilename)); err != nil {
			continue
		}
		m, err := LoadManifest(dir)
		if err != nil {
			loadErrors[entry.Name()] = err
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, loadErrors
}
