// Package registry implements the Tool Registry of spec §4.8: a mapping
// from qualified tool name to tool entry, merging built-in tools with
// plugin tools and routing calls back to their origin.
//
// Grounded on original_source/mcp/registry.rs — the actual tool registry
// concept (distinct from the teacher's GitHub-hosted plugin marketplace,
// see DESIGN.md).
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/omni-glass/omniglass/internal/pipelineerr"
)

const BuiltinPluginID = "builtin"

// Tool is a registry entry (spec §3).
type Tool struct {
	PluginID    string
	Name        string
	DisplayName string
	Description string
	InputSchema map[string]any
}

// QualifiedName returns "plugin_id:tool_name". Qualified names are
// globally unique; unqualified names may collide.
func (t Tool) QualifiedName() string {
	return QualifiedName(t.PluginID, t.Name)
}

// QualifiedName formats a plugin id and tool name into the registry's
// qualified-name convention.
func QualifiedName(pluginID, toolName string) string {
	return fmt.Sprintf("%s:%s", pluginID, toolName)
}

// SchemaJSON renders the tool's input schema as a compact JSON object,
// or "{}" when the tool declares none. Spec §4.8: "Serialisation to the
// CLASSIFY prompt enumerates every tool's description and input schema."
func (t Tool) SchemaJSON() string {
	if len(t.InputSchema) == 0 {
		return "{}"
	}
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// BuiltinHandler executes a built-in tool call synchronously.
type BuiltinHandler func(ctx context.Context, args map[string]any) (string, error)

// PluginCaller dispatches a tools/call to a live plugin, and can stop
// one outright. Implemented by internal/mcpclient; kept as an interface
// here to avoid an import cycle between registry and mcpclient.
type PluginCaller interface {
	CallTool(ctx context.Context, pluginID, toolName string, args map[string]any) (string, error)
	Stop(pluginID string) error
}

// Registry is guarded by a mutex that may be held across a plugin call
// (spec §5: "an asynchronous mutex because a registration/call may
// suspend while holding the lock"). Per-plugin calls are additionally
// serialised through a singleflight group so two concurrent calls to the
// same plugin tool queue rather than race the plugin's single stdio pipe
// (spec §5: "the registry may serialise calls per plugin").
type Registry struct {
	mu      sync.Mutex
	tools   map[string]Tool
	plugin  PluginCaller
	builtin map[string]BuiltinHandler
	calls   singleflight.Group
}

// New creates an empty registry. plugin may be nil until the MCP client
// is wired up; calls to plugin tools before then fail clearly.
func New(plugin PluginCaller) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		builtin: make(map[string]BuiltinHandler),
		plugin:  plugin,
	}
}

// SetPluginCaller wires the MCP client in after construction, for callers
// that build the registry before the MCP supervisor exists.
func (r *Registry) SetPluginCaller(p PluginCaller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugin = p
}

// RegisterBuiltin registers a host-implemented tool. Built-ins use
// PluginID "builtin" and are registered before any plugin handshake.
func (r *Registry) RegisterBuiltin(name, description string, schema map[string]any, handler BuiltinHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tool := Tool{PluginID: BuiltinPluginID, Name: name, DisplayName: displayNameFor(name), Description: description, InputSchema: schema}
	r.tools[tool.QualifiedName()] = tool
	r.builtin[name] = handler
}

// RegisterPluginTools registers every tool a plugin advertised after its
// handshake completes. Existing tools for pluginID are replaced.
func (r *Registry) RegisterPluginTools(pluginID string, tools []Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removePluginToolsLocked(pluginID)
	for _, t := range tools {
		t.PluginID = pluginID
		if t.DisplayName == "" {
			t.DisplayName = displayNameFor(t.Name)
		}
		r.tools[t.QualifiedName()] = t
	}
}

// RemovePluginTools drops only pluginID's tools, leaving built-ins and
// other plugins untouched — failure isolation per spec §4.7.
func (r *Registry) RemovePluginTools(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removePluginToolsLocked(pluginID)
}

func (r *Registry) removePluginToolsLocked(pluginID string) {
	for qname, t := range r.tools {
		if t.PluginID == pluginID {
			delete(r.tools, qname)
		}
	}
}

// AllTools returns every registered tool, sorted by qualified name for
// deterministic prompt assembly.
func (r *Registry) AllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// GetTool looks up a tool by qualified name.
func (r *Registry) GetTool(qualifiedName string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tools[qualifiedName]
	return t, ok
}

// IsPluginAction reports whether actionID names a plugin tool, either by
// qualified name or by bare tool name (excluding built-ins).
func (r *Registry) IsPluginAction(actionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tools[actionID]; ok {
		return t.PluginID != BuiltinPluginID
	}
	for _, t := range r.tools {
		if t.PluginID != BuiltinPluginID && t.Name == actionID {
			return true
		}
	}
	return false
}

// ResolveAction resolves an action id to a tool entry, trying the
// qualified name first, then a bare-name search (original_source's
// resolve_action order).
func (r *Registry) ResolveAction(actionID string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tools[actionID]; ok {
		return t, true
	}
	for _, t := range r.tools {
		if t.Name == actionID {
			return t, true
		}
	}
	return Tool{}, false
}

// Call dispatches an action id to either a built-in handler or, via the
// wired PluginCaller, to the plugin that owns the tool.
func (r *Registry) Call(ctx context.Context, actionID string, args map[string]any) (string, error) {
	tool, ok := r.ResolveAction(actionID)
	if !ok {
		return "", fmt.Errorf("unknown action: %s", actionID)
	}

	if tool.PluginID == BuiltinPluginID {
		r.mu.Lock()
		handler, ok := r.builtin[tool.Name]
		r.mu.Unlock()
		if !ok {
			return "", fmt.Errorf("no handler registered for builtin %s", tool.Name)
		}
		return handler(ctx, args)
	}

	r.mu.Lock()
	caller := r.plugin
	r.mu.Unlock()
	if caller == nil {
		return "", fmt.Errorf("no MCP client wired for plugin %s", tool.PluginID)
	}

	// Serialise concurrent calls to the same plugin tool.
	key := tool.QualifiedName()
	v, err, _ := r.calls.Do(key, func() (any, error) {
		return caller.CallTool(ctx, tool.PluginID, tool.Name, args)
	})
	if err != nil {
		var pluginErr *pipelineerr.PluginError
		if errors.As(err, &pluginErr) {
			// Failure isolation per spec §4.7: a protocol error or
			// unparseable response terminates the plugin and drops only
			// its own tools from the registry, leaving built-ins and
			// every other plugin untouched.
			r.RemovePluginTools(pluginErr.PluginID)
			_ = caller.Stop(pluginErr.PluginID)
		}
		return "", err
	}
	return v.(string), nil
}

// PromptLines formats every registered tool as a line suitable for
// injection into the CLASSIFY prompt, in the style original_source's
// tools_for_prompt produces.
func (r *Registry) PromptLines() []string {
	tools := r.AllTools()
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		lines = append(lines, fmt.Sprintf(
			`- id: %q, label: %q, description: %q, requiresExecution: true, input_schema: %s`,
			t.QualifiedName(), t.DisplayName, t.Description, t.SchemaJSON(),
		))
	}
	return lines
}

func displayNameFor(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
