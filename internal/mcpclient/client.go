// Package mcpclient implements the actor-model plugin process supervisor
// of spec §4.7/§9: spawn a plugin over stdio, perform the MCP handshake,
// list its tools, and dispatch tools/call requests, all through
// mark3labs/mcp-go rather than hand-rolled JSON-RPC/NDJSON framing.
//
// Grounded on hkdb-otui/mcp/process.go's ProcessManager, generalised from
// its local-or-remote branch (Omni-Glass plugins are always local stdio
// processes per spec §4.6/§4.7) and rewired to filter the child's
// environment through internal/plugin.FilterEnvironment instead of the
// teacher's configToEnv, which forwards the full parent os.Environ().
package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/pipelineerr"
	"github.com/omni-glass/omniglass/internal/plugin"
	"github.com/omni-glass/omniglass/internal/registry"
)

// ToolCallTimeout bounds a single tools/call round trip (spec §4.7).
const ToolCallTimeout = 30 * time.Second

// ShutdownGrace is how long Stop waits for a clean client Close before
// killing the process outright.
const ShutdownGrace = 3 * time.Second

type pluginProcess struct {
	id      string
	client  *client.Client
	cmd     *exec.Cmd
	running bool

	// faulted marks the health status of spec §3's Plugin State as
	// "faulted" rather than "live": set the moment a protocol error or
	// unparseable response comes back from the plugin (spec §4.7), ahead
	// of the process actually being torn down.
	faulted bool
}

// Supervisor manages the lifecycle of every spawned plugin process. It
// implements registry.PluginCaller so the Tool Registry can dispatch
// calls back into it without an import cycle.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*pluginProcess
	logger    *zap.Logger
}

// New creates an empty Supervisor.
func New(logger *zap.Logger) *Supervisor {
	return &Supervisor{
		processes: make(map[string]*pluginProcess),
		logger:    logger,
	}
}

// Spawn starts pluginDir's entry point as a subprocess, performs the MCP
// initialize/tools-list handshake, and returns its tools converted to
// registry.Tool. The process's environment is exactly what
// plugin.FilterEnvironment computes — no more, no less.
func (s *Supervisor) Spawn(ctx context.Context, m plugin.Manifest, pluginDir string) ([]registry.Tool, error) {
	s.mu.Lock()
	if p, ok := s.processes[m.ID]; ok && p.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("mcpclient: plugin %s already running", m.ID)
	}
	s.mu.Unlock()

	env := plugin.EnvironmentSlice(plugin.FilterEnvironment(m.Permissions, m.ID))
	command, args := entryCommand(pluginDir, m)

	var capturedCmd *exec.Cmd
	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		cmd.Dir = pluginDir
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		command,
		env,
		args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: starting %s: %w", m.ID, err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "omniglassd",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("mcpclient: initializing %s: %w", m.ID, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("mcpclient: listing tools for %s: %w", m.ID, err)
	}

	s.mu.Lock()
	s.processes[m.ID] = &pluginProcess{id: m.ID, client: mcpClient, cmd: capturedCmd, running: true}
	s.mu.Unlock()

	s.logger.Info("plugin started", zap.String("plugin_id", m.ID), zap.Int("tool_count", len(toolsResult.Tools)))

	return convertTools(m.ID, toolsResult.Tools), nil
}

// CallTool implements registry.PluginCaller. A non-nil error from the
// underlying client means the MCP round trip itself failed — a broken
// pipe, a timeout, or a response that didn't parse as JSON-RPC — as
// opposed to a tool reporting its own application-level failure inside a
// well-formed result. Per spec §4.7 that class of failure faults the
// plugin; the caller (internal/registry) is responsible for removing the
// plugin's tools and stopping the process once it sees a *pipelineerr.PluginError.
func (s *Supervisor) CallTool(ctx context.Context, pluginID, toolName string, args map[string]any) (string, error) {
	s.mu.RLock()
	p, ok := s.processes[pluginID]
	s.mu.RUnlock()
	if !ok || !p.running || p.faulted {
		return "", fmt.Errorf("mcpclient: plugin %s is not running", pluginID)
	}

	callCtx, cancel := context.WithTimeout(ctx, ToolCallTimeout)
	defer cancel()

	req := mcptypes.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	result, err := p.client.CallTool(callCtx, req)
	if err != nil {
		s.markFaulted(pluginID)
		return "", pipelineerr.Plugin(pluginID, fmt.Errorf("calling %s: %w", toolName, err))
	}

	return flattenToolResult(result), nil
}

// markFaulted flips a process's health status to faulted, ahead of the
// caller tearing it down. Idempotent.
func (s *Supervisor) markFaulted(pluginID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.processes[pluginID]; ok {
		p.faulted = true
	}
}

// Stop closes pluginID's client, waiting ShutdownGrace for a clean
// shutdown before killing the process (spec §9: writer/reader/supervisor
// actor model — a wedged plugin must never hang the host).
func (s *Supervisor) Stop(pluginID string) error {
	s.mu.Lock()
	p, ok := s.processes[pluginID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mcpclient: plugin %s not found", pluginID)
	}
	p.running = false
	delete(s.processes, pluginID)
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.client.Close() }()

	select {
	case <-done:
	case <-time.After(ShutdownGrace):
		s.logger.Warn("plugin close timed out, killing process", zap.String("plugin_id", pluginID))
	}

	if p.cmd != nil && p.cmd.Process != nil {
		if err := p.cmd.Process.Kill(); err != nil {
			s.logger.Debug("plugin process kill error (likely already exited)", zap.String("plugin_id", pluginID), zap.Error(err))
		}
	}
	return nil
}

// StopAll shuts down every running plugin, used on host shutdown.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.processes))
	for id := range s.processes {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if err := s.Stop(id); err != nil {
			s.logger.Warn("error stopping plugin", zap.String("plugin_id", id), zap.Error(err))
		}
	}
}

// IsRunning reports whether pluginID currently has a live process.
func (s *Supervisor) IsRunning(pluginID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[pluginID]
	return ok && p.running
}

// IsFaulted reports whether pluginID's health status is faulted (spec
// §3's Plugin State), i.e. its last call failed at the protocol level
// but Stop hasn't yet removed it from the process table.
func (s *Supervisor) IsFaulted(pluginID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[pluginID]
	return ok && p.faulted
}

// entryCommand resolves a manifest's runtime + entry into the (command,
// args) pair the process actually execs: interpreted runtimes invoke
// their interpreter with the entry file as an argument, binary runtimes
// exec the entry file directly.
func entryCommand(pluginDir string, m plugin.Manifest) (string, []string) {
	entryPath := filepath.Join(pluginDir, m.Entry)
	switch m.Runtime {
	case plugin.RuntimeNode:
		return "node", []string{entryPath}
	case plugin.RuntimePython:
		return "python3", []string{entryPath}
	default:
		return entryPath, nil
	}
}

func convertTools(pluginID string, tools []mcptypes.Tool) []registry.Tool {
	out := make([]registry.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, registry.Tool{
			PluginID:    pluginID,
			Name:        t.Name,
			DisplayName: t.Name,
			Description: t.Description,
			InputSchema: convertInputSchema(t.InputSchema),
		})
	}
	return out
}

// convertInputSchema turns an MCP ToolInputSchema struct into the plain
// JSON-Schema map registry.Tool carries, the same struct-to-map
// conversion hkdb-otui/mcp/tool_converter.go does for its provider-bound
// tool converters (there, into OpenAI/Anthropic tool params; here, into
// the CLASSIFY prompt's tool enumeration).
func convertInputSchema(schema mcptypes.ToolInputSchema) map[string]any {
	if schema.Type == "" && schema.Properties == nil {
		return nil
	}
	m := map[string]any{
		"type":       schema.Type,
		"properties": schema.Properties,
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	if schema.Defs != nil {
		m["$defs"] = schema.Defs
	}
	return m
}

func flattenToolResult(result *mcptypes.CallToolResult) string {
	if result == nil {
		return ""
	}
	var out string
	for _, c := range result.Content {
		if tc, ok := c.(mcptypes.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}
