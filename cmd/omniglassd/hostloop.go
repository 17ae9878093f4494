// The NDJSON host-command loop (spec §6): one JSON object per line in,
// one JSON object per line out, plus asynchronous event lines for a
// session's skeleton/menu/result/failed checkpoints. This is the UI
// collaborator's only window into the daemon — there is no other
// transport.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/action"
	"github.com/omni-glass/omniglass/internal/config"
	"github.com/omni-glass/omniglass/internal/dispatch"
	"github.com/omni-glass/omniglass/internal/llmtransport"
	"github.com/omni-glass/omniglass/internal/pipeline"
	"github.com/omni-glass/omniglass/internal/plugin"
)

// request is one line of host-command input.
type request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// response is the reply to exactly one request, correlated by ID.
type response struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// eventLine is an unsolicited notification — a session's progress as it
// streams through CLASSIFY/EXECUTE, not a reply to any particular request.
type eventLine struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// hostLoop reads newline-delimited requests from r and writes
// newline-delimited responses/events to w, serialised through a single
// mutex since session event delivery and request replies share the same
// stream.
type hostLoop struct {
	app    *app
	out    io.Writer
	mu     sync.Mutex
	logger *zap.Logger
}

func newHostLoop(a *app, w io.Writer) *hostLoop {
	return &hostLoop{app: a, out: w, logger: a.logger}
}

func (h *hostLoop) writeLine(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal host loop line", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := h.out.Write(data); err != nil {
		h.logger.Error("failed to write host loop line", zap.Error(err))
	}
}

// run reads requests from r until EOF or ctx is cancelled, dispatching
// each on its own goroutine so a slow CLASSIFY/EXECUTE call for one
// session never blocks another request's reply.
func (h *hostLoop) run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var wg sync.WaitGroup
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			h.writeLine(response{OK: false, Error: fmt.Sprintf("invalid request: %v", err)})
			continue
		}

		reqCopy := req
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.handle(ctx, reqCopy)
		}()
	}
	wg.Wait()
	return scanner.Err()
}

func (h *hostLoop) handle(ctx context.Context, req request) {
	result, err := h.dispatch(ctx, req)
	if err != nil {
		h.writeLine(response{ID: req.ID, OK: false, Error: err.Error()})
		return
	}
	h.writeLine(response{ID: req.ID, OK: true, Result: result})
}

func (h *hostLoop) dispatch(ctx context.Context, req request) (any, error) {
	switch req.Command {
	case "get_provider_config":
		return h.getProviderConfig()
	case "set_active_provider":
		return h.setActiveProvider(req.Params)
	case "save_api_key":
		return h.saveAPIKey(req.Params)
	case "test_provider":
		return h.testProvider(ctx, req.Params)
	case "process_snip":
		return h.processSnip(ctx, req.Params)
	case "execute_text_command":
		return h.executeTextCommand(ctx, req.Params)
	case "execute_action":
		return h.executeAction(ctx, req.Params)
	case "run_confirmed_command":
		return h.runConfirmedCommand(ctx, req.Params)
	case "copy_to_clipboard":
		return h.copyToClipboard(req.Params)
	case "write_to_desktop":
		return h.writeToDesktop(req.Params)
	case "write_file_to_path":
		return h.writeFileToPath(req.Params)
	case "get_ocr_text":
		return h.getOCRText(req.Params)
	case "get_action_menu":
		return h.getActionMenu(req.Params)
	case "get_pending_approvals":
		return h.getPendingApprovals()
	case "approve_plugin":
		return h.approvePlugin(ctx, req.Params)
	case "close_window", "close_menu", "close_settings":
		return map[string]bool{"closed": true}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", req.Command)
	}
}

// --- provider settings ---

type providerConfigResult struct {
	DefaultProvider string                  `json:"defaultProvider"`
	Providers       []config.ProviderConfig `json:"providers"`
}

func (h *hostLoop) getProviderConfig() (any, error) {
	return providerConfigResult{DefaultProvider: h.app.cfg.DefaultProvider, Providers: h.app.cfg.Providers}, nil
}

func (h *hostLoop) setActiveProvider(raw json.RawMessage) (any, error) {
	var params struct {
		ProviderID string `json:"providerId"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if h.app.cfg.ProviderByID(params.ProviderID) == nil {
		return nil, fmt.Errorf("provider %q is not configured", params.ProviderID)
	}

	h.app.cfg.DefaultProvider = params.ProviderID
	if err := h.persistUserConfig(); err != nil {
		return nil, err
	}
	if err := h.app.rebuildTransport(); err != nil {
		return nil, err
	}
	return map[string]string{"defaultProvider": params.ProviderID}, nil
}

// saveAPIKey sets the provider's API key for this process's lifetime
// only (spec §1 places keychain storage of provider keys in the external
// column; the daemon never writes a credential to disk, see DESIGN.md).
func (h *hostLoop) saveAPIKey(raw json.RawMessage) (any, error) {
	var params struct {
		ProviderID string `json:"providerId"`
		APIKey     string `json:"apiKey"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	envVar, ok := llmtransport.APIKeyEnvVar(params.ProviderID)
	if !ok {
		return nil, fmt.Errorf("provider %q takes no API key", params.ProviderID)
	}
	if err := os.Setenv(envVar, params.APIKey); err != nil {
		return nil, fmt.Errorf("setting %s: %w", envVar, err)
	}
	if params.ProviderID == h.app.cfg.DefaultProvider {
		if err := h.app.rebuildTransport(); err != nil {
			return nil, err
		}
	}
	return map[string]bool{"saved": true}, nil
}

func (h *hostLoop) testProvider(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		ProviderID string `json:"providerId"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	pc := h.app.cfg.ProviderByID(params.ProviderID)
	if pc == nil {
		return nil, fmt.Errorf("provider %q is not configured", params.ProviderID)
	}
	transport, err := llmtransport.New(params.ProviderID, *pc, 64, 64)
	if err != nil {
		return map[string]any{"ok": false, "error": err.Error()}, nil
	}
	_, err = transport.StreamClassify(ctx, "Reply with the single word ok.", "ok", func(llmtransport.Chunk) error { return nil })
	if err != nil {
		return map[string]any{"ok": false, "error": err.Error()}, nil
	}
	return map[string]any{"ok": true}, nil
}

func (h *hostLoop) persistUserConfig() error {
	userCfg := &config.UserConfig{
		DefaultProvider: h.app.cfg.DefaultProvider,
		Providers:       h.app.cfg.Providers,
		PluginsEnabled:  h.app.cfg.PluginsEnabled,
	}
	return config.SaveUserConfig(userCfg, h.app.cfg.DataDir())
}

// --- pipeline ---

type snipParams struct {
	ImageBase64 string `json:"imageBase64"`
	Platform    string `json:"platform"`
	SourceApp   string `json:"sourceApp"`
	WindowTitle string `json:"windowTitle"`
	AnchorX     int    `json:"anchorX"`
	AnchorY     int    `json:"anchorY"`
}

func (h *hostLoop) processSnip(ctx context.Context, raw json.RawMessage) (any, error) {
	var params snipParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	image, err := base64.StdEncoding.DecodeString(params.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid imageBase64: %w", err)
	}
	meta := action.SnipContext{
		Platform:    params.Platform,
		SourceApp:   params.SourceApp,
		WindowTitle: params.WindowTitle,
		Anchor:      action.Anchor{X: params.AnchorX, Y: params.AnchorY},
	}
	sess, err := h.app.orchestrator.ProcessSnip(ctx, image, meta, h.sink())
	if err != nil {
		return nil, err
	}
	return sessionSummary(sess), nil
}

func (h *hostLoop) executeTextCommand(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Text     string `json:"text"`
		Platform string `json:"platform"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	sess, err := h.app.orchestrator.ExecuteTextCommand(ctx, params.Text, params.Platform, h.sink())
	if err != nil {
		return nil, err
	}
	return sessionSummary(sess), nil
}

func (h *hostLoop) executeAction(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		SessionID string `json:"sessionId"`
		ActionID  string `json:"actionId"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	result, err := h.app.orchestrator.ExecuteAction(ctx, params.SessionID, params.ActionID, h.sink())
	if err != nil {
		return nil, err
	}
	if h.app.dispatcher != nil {
		if derr := h.app.dispatcher.Dispatch(ctx, *result); derr != nil {
			h.logger.Warn("result dispatch failed", zap.String("action_id", params.ActionID), zap.Error(derr))
		}
	}
	return result, nil
}

func (h *hostLoop) runConfirmedCommand(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	return h.app.dispatcher.RunConfirmedCommand(ctx, params.Command)
}

func (h *hostLoop) copyToClipboard(raw json.RawMessage) (any, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := dispatch.CopyToClipboard(params.Text); err != nil {
		return nil, err
	}
	return map[string]bool{"copied": true}, nil
}

func (h *hostLoop) writeToDesktop(raw json.RawMessage) (any, error) {
	var params struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	path, err := h.app.dispatcher.WriteToDesktop(params.Filename, params.Content)
	if err != nil {
		return nil, err
	}
	return map[string]string{"path": path}, nil
}

func (h *hostLoop) writeFileToPath(raw json.RawMessage) (any, error) {
	var params struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := dispatch.WriteFileToPath(params.Path, params.Content); err != nil {
		return nil, err
	}
	return map[string]bool{"written": true}, nil
}

func (h *hostLoop) getOCRText(raw json.RawMessage) (any, error) {
	var params struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	sess, ok := h.app.orchestrator.Session(params.SessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", params.SessionID)
	}
	return map[string]string{"text": sess.Snip.Text}, nil
}

func (h *hostLoop) getActionMenu(raw json.RawMessage) (any, error) {
	var params struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	sess, ok := h.app.orchestrator.Session(params.SessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", params.SessionID)
	}
	if sess.Menu == nil {
		return nil, fmt.Errorf("session %s has no action menu yet", params.SessionID)
	}
	return sess.Menu, nil
}

// --- plugins ---

func (h *hostLoop) getPendingApprovals() (any, error) {
	return plugin.PendingApprovalDescriptors(h.app.approvals, h.app.manifests, config.GetDocumentsDir()), nil
}

func (h *hostLoop) approvePlugin(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		PluginID string `json:"pluginId"`
		Approved bool   `json:"approved"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var m *plugin.Manifest
	for i := range h.app.manifests {
		if h.app.manifests[i].ID == params.PluginID {
			m = &h.app.manifests[i]
			break
		}
	}
	if m == nil {
		return nil, fmt.Errorf("unknown plugin: %s", params.PluginID)
	}

	if params.Approved {
		plugin.RecordApproval(&h.app.approvals, *m, time.Now())
	} else {
		plugin.RecordDenial(&h.app.approvals, params.PluginID, time.Now())
	}
	if err := plugin.SaveApprovalStore(config.GetApprovalRecordPath(), h.app.approvals); err != nil {
		return nil, fmt.Errorf("saving approval record: %w", err)
	}

	if !params.Approved {
		h.app.registry.RemovePluginTools(params.PluginID)
		if err := h.app.supervisor.Stop(params.PluginID); err != nil {
			h.logger.Warn("failed to stop denied plugin", zap.String("plugin_id", params.PluginID), zap.Error(err))
		}
		return map[string]bool{"approved": false}, nil
	}

	tools, err := h.app.supervisor.Spawn(ctx, *m, m.Dir)
	if err != nil {
		return nil, fmt.Errorf("spawning approved plugin: %w", err)
	}
	h.app.registry.RegisterPluginTools(m.ID, tools)
	return map[string]bool{"approved": true}, nil
}

func sessionSummary(sess *action.Session) map[string]any {
	return map[string]any{
		"sessionId": sess.ID,
		"phase":     sess.Phase,
		"menu":      sess.Menu,
	}
}

func (h *hostLoop) sink() pipeline.EventSink {
	return ndjsonSink{h}
}

// ndjsonSink publishes a session's progress as unsolicited event lines,
// the streaming-checkpoint half of spec §6's host-command surface.
type ndjsonSink struct {
	h *hostLoop
}

func (s ndjsonSink) OnSkeleton(e pipeline.SkeletonEvent) {
	s.h.writeLine(eventLine{Event: "skeleton", SessionID: e.SessionID, Payload: map[string]string{
		"contentType": e.ContentType,
		"summary":     e.Summary,
	}})
}

func (s ndjsonSink) OnMenu(e pipeline.MenuEvent) {
	s.h.writeLine(eventLine{Event: "menu", SessionID: e.SessionID, Payload: e.Menu})
}

func (s ndjsonSink) OnResult(e pipeline.ResultEvent) {
	s.h.writeLine(eventLine{Event: "result", SessionID: e.SessionID, Payload: e.Result})
}

func (s ndjsonSink) OnFailed(e pipeline.FailedEvent) {
	s.h.writeLine(eventLine{Event: "failed", SessionID: e.SessionID, Payload: map[string]string{
		"phase":  string(e.Phase),
		"reason": e.Reason,
	}})
}
