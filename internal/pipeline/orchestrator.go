// Package pipeline implements the top-level state machine of spec §4.9:
// ocr → classify → await_click → execute → done, with a second
// typed-command entry point that skips straight to classify.
//
// Grounded on original_source/pipeline.rs's process_snip/execute_action
// pair (crop→OCR→skeleton-window→classify→store, and the
// is_plugin_action branch ahead of provider dispatch) and
// original_source/pipeline_text.rs's typed-command variant, rewritten as
// a plain goroutine-driven state machine — there is no UI event loop on
// this side of the boundary, so the teacher's bubbletea Update-style
// dispatch switch (hkdb-otui/ui/appview.go) is adapted into ordinary
// method calls instead of tea.Msg routing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/omni-glass/omniglass/internal/action"
	"github.com/omni-glass/omniglass/internal/heuristics"
	"github.com/omni-glass/omniglass/internal/jsonskeleton"
	"github.com/omni-glass/omniglass/internal/llmtransport"
	"github.com/omni-glass/omniglass/internal/pipelineerr"
	"github.com/omni-glass/omniglass/internal/prompt"
	"github.com/omni-glass/omniglass/internal/registry"
	"github.com/omni-glass/omniglass/internal/safety"
)

// StreamTimeout bounds a single classify or execute stream end-to-end
// (spec §5: "LLM stream: bounded end-to-end wait (≈60s)").
const StreamTimeout = 60 * time.Second

// accurateReOCRActions are the fix-oriented action ids that warrant a
// second, higher-fidelity OCR pass before EXECUTE (the re-OCR supplement
// ported from original_source/pipeline.rs's `needs_accurate`).
var accurateReOCRActions = map[string]bool{
	"suggest_fix": true,
	"fix_error":   true,
	"fix_syntax":  true,
	"fix_code":    true,
	"format_code": true,
}

// Orchestrator drives every Pipeline Session through the state machine.
// It holds no per-request state itself beyond the in-flight session
// table; everything else is a collaborator reached through one of its
// five interfaces (OCR, Transport, Registry, Dispatcher, Audit), so a
// headless test can swap in fakes for all of them.
type Orchestrator struct {
	transport  llmtransport.Transport
	registry   *registry.Registry
	ocr        OCRProvider
	dispatcher ResultDispatcher
	audit      AuditSink
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*action.Session
}

// New creates an Orchestrator. ocr, dispatcher, and audit may be nil — a
// nil ocr means only the typed-command path is usable; a nil dispatcher
// means ExecuteAction still returns the Action Result but nothing
// downstream acts on a command/file/clipboard kind; a nil audit means
// redaction events, blocklist hits, and token usage are logged but not
// persisted.
func New(transport llmtransport.Transport, reg *registry.Registry, ocr OCRProvider, dispatcher ResultDispatcher, auditSink AuditSink, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		transport:  transport,
		registry:   reg,
		ocr:        ocr,
		dispatcher: dispatcher,
		audit:      auditSink,
		logger:     logger,
		sessions:   make(map[string]*action.Session),
	}
}

// SetTransport swaps the LLM Transport in place, for the
// `set_active_provider`/`save_api_key` host commands (spec §6): the
// provider can change mid-run without losing in-flight sessions, which
// rebuilding the Orchestrator from scratch would discard.
func (o *Orchestrator) SetTransport(t llmtransport.Transport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transport = t
}

// Session returns the in-flight session for id, if any.
func (o *Orchestrator) Session(id string) (*action.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	return s, ok
}

func (o *Orchestrator) store(s *action.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions[s.ID] = s
}

// ProcessSnip runs the ocr → classify phases for a freshly captured
// region. meta carries everything the capture collaborator already knows
// (platform, source app, window title, anchor); image is the encoded
// crop handed to the OCR collaborator. The returned session is in
// PhaseAwaitClick on success, or PhaseFailed with FailReason set.
func (o *Orchestrator) ProcessSnip(ctx context.Context, image []byte, meta action.SnipContext, sink EventSink) (*action.Session, error) {
	if sink == nil {
		sink = NopEventSink{}
	}
	sess := &action.Session{
		ID:        uuid.NewString(),
		Snip:      meta,
		Phase:     action.PhaseOCR,
		StartedAt: time.Now(),
		CropImage: image,
	}
	o.store(sess)

	if o.ocr == nil {
		return o.fail(sess, action.PhaseOCR, "no OCR collaborator configured", sink)
	}

	text, confidence, err := o.ocr.Recognize(ctx, image, action.RecognitionFast)
	if err != nil {
		return o.fail(sess, action.PhaseOCR, err.Error(), sink, pipelineerr.Transient("ocr", err))
	}
	if text == "" || looksLikeOCRError(text) {
		return o.fail(sess, action.PhaseOCR, "OCR produced no usable text", sink)
	}

	sess.Snip.Text = text
	sess.Snip.Confidence = confidence
	sess.Snip.RecognitionLevel = action.RecognitionFast
	sess.Phase = action.PhaseClassify

	if err := o.runClassify(ctx, sess, sink); err != nil {
		return o.fail(sess, action.PhaseClassify, err.Error(), sink, err)
	}
	return sess, nil
}

// ExecuteTextCommand is the typed-command entry point (spec §4.9): a
// plain-text query is treated as if it were OCR output and routed
// straight into classify, skipping ocr entirely.
func (o *Orchestrator) ExecuteTextCommand(ctx context.Context, text, platform string, sink EventSink) (*action.Session, error) {
	if sink == nil {
		sink = NopEventSink{}
	}
	sess := &action.Session{
		ID: uuid.NewString(),
		Snip: action.SnipContext{
			Text:             text,
			Confidence:       1.0,
			RecognitionLevel: action.RecognitionAccurate,
			Platform:         platform,
		},
		Phase:     action.PhaseClassify,
		StartedAt: time.Now(),
	}
	o.store(sess)

	if err := o.runClassify(ctx, sess, sink); err != nil {
		return o.fail(sess, action.PhaseClassify, err.Error(), sink, err)
	}
	return sess, nil
}

// ExecuteAction runs the execute phase for a session already sitting in
// PhaseAwaitClick (spec §9's Open Question decision: every action routes
// through here, including requires_execution=false ones — the registry
// dispatch and, for plugin tools, the absence of an EXECUTE LLM call are
// what make a "local" action cheap, not a UI short-circuit).
func (o *Orchestrator) ExecuteAction(ctx context.Context, sessionID, actionID string, sink EventSink) (*action.ActionResult, error) {
	if sink == nil {
		sink = NopEventSink{}
	}
	sess, ok := o.Session(sessionID)
	if !ok {
		return nil, fmt.Errorf("pipeline: unknown session %s", sessionID)
	}
	if sess.Phase != action.PhaseAwaitClick {
		return nil, fmt.Errorf("pipeline: session %s is not awaiting an action (phase=%s)", sessionID, sess.Phase)
	}

	sess.SelectedID = actionID
	sess.Phase = action.PhaseExecute

	result, err := o.runExecute(ctx, sess, actionID)
	if err != nil {
		o.fail(sess, action.PhaseExecute, err.Error(), sink, err)
		return nil, err
	}

	sess.Result = &result
	sess.Phase = action.PhaseDone
	sink.OnResult(ResultEvent{SessionID: sess.ID, Result: result})

	if o.dispatcher != nil {
		if err := o.dispatcher.Dispatch(ctx, result); err != nil {
			o.logger.Warn("result dispatch failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	return &result, nil
}

func (o *Orchestrator) fail(sess *action.Session, phase action.Phase, reason string, sink EventSink, errs ...error) (*action.Session, error) {
	sess.Phase = action.PhaseFailed
	sess.FailReason = reason
	sink.OnFailed(FailedEvent{SessionID: sess.ID, Phase: phase, Reason: reason})
	o.logger.Warn("session failed", zap.String("session_id", sess.ID), zap.String("phase", string(phase)), zap.String("reason", reason))
	if len(errs) > 0 && errs[0] != nil {
		return sess, errs[0]
	}
	return sess, pipelineerr.Transient(string(phase), fmt.Errorf("%s", reason))
}

// runClassify assembles and streams the CLASSIFY call, publishing a
// skeleton event as soon as one is extractable and the complete menu at
// stream end (spec §4.9, §5: "the skeleton event strictly precedes the
// complete event").
func (o *Orchestrator) runClassify(ctx context.Context, sess *action.Session, sink EventSink) error {
	flags := heuristics.Detect(sess.Snip.Text)
	redaction := safety.RedactForTransport(sess.Snip.Text, o.transport.IsRemote(), o.logger)

	promptSnip := sess.Snip
	promptSnip.Text = redaction.Text

	var tools []registry.Tool
	if o.registry != nil {
		tools = o.registry.AllTools()
	}
	userMessage := prompt.BuildClassifyMessage(promptSnip, flags, tools)

	ctx, cancel := context.WithTimeout(ctx, StreamTimeout)
	defer cancel()

	extractor := jsonskeleton.New()
	var buf strings.Builder
	var usage llmtransport.Usage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := o.transport.StreamClassify(gctx, prompt.ClassifySystemPrompt, userMessage, func(chunk llmtransport.Chunk) error {
			if chunk.Text == "" {
				return nil
			}
			buf.WriteString(chunk.Text)
			if skel, ok := extractor.Feed(chunk.Text); ok {
				sink.OnSkeleton(SkeletonEvent{SessionID: sess.ID, ContentType: skel.ContentType, Summary: skel.Summary})
			}
			return nil
		})
		usage = u
		return err
	})
	if err := g.Wait(); err != nil {
		return pipelineerr.Transient("classify", err)
	}

	menu, err := parseActionMenu(buf.String())
	if err != nil {
		o.logger.Info("classify response failed to parse, substituting fallback menu", zap.String("session_id", sess.ID), zap.Error(err))
		fallback := action.Fallback()
		menu = &fallback
	}
	if redaction.HasMatches() {
		menu.RedactionAnnotation = "Some sensitive values were redacted before this request left the device."
		if o.audit != nil {
			if err := o.audit.RecordRedaction(ctx, sess.ID, redaction.Counts); err != nil {
				o.logger.Warn("failed to record redaction event", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}
	}
	if o.audit != nil {
		if err := o.audit.RecordTokenUsage(ctx, sess.ID, "classify", usage.InputTokens, usage.OutputTokens); err != nil {
			o.logger.Warn("failed to record token usage", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	if len(menu.Actions) == 0 {
		fallback := action.Fallback()
		menu = &fallback
	}

	sess.Menu = menu
	sess.Phase = action.PhaseAwaitClick
	o.logger.Info("classify complete",
		zap.String("session_id", sess.ID),
		zap.String("content_type", string(menu.ContentType)),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)
	sink.OnMenu(MenuEvent{SessionID: sess.ID, Menu: *menu})
	return nil
}

// runExecute assembles and streams the EXECUTE call, or — for any
// action id the Tool Registry already has an entry for, built-in or
// plugin — skips the LLM entirely and calls straight into the registry,
// generalising original_source/pipeline.rs's is_plugin_action branch.
func (o *Orchestrator) runExecute(ctx context.Context, sess *action.Session, actionID string) (action.ActionResult, error) {
	extractedText := sess.Snip.Text
	if accurateReOCRActions[actionID] && o.ocr != nil && len(sess.CropImage) > 0 {
		if accurate, _, err := o.ocr.Recognize(ctx, sess.CropImage, action.RecognitionAccurate); err == nil && accurate != "" {
			extractedText = accurate
		} else if err != nil {
			o.logger.Warn("re-OCR at accurate fidelity failed, using the original text", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	// Every action id routes through here regardless of the Action's
	// RequiresExecution flag (spec §9's Open Question, resolved in
	// DESIGN.md: "always route through the orchestrator"). A registered
	// tool — built-in or plugin — is dispatched directly and never sees
	// an EXECUTE prompt; only an action with no registry entry needs one.
	if o.registry != nil {
		if _, ok := o.registry.ResolveAction(actionID); ok {
			return o.runRegistryExecute(ctx, sess, actionID, extractedText)
		}
	}

	redaction := safety.RedactForTransport(extractedText, o.transport.IsRemote(), o.logger)
	if redaction.HasMatches() && o.audit != nil {
		if err := o.audit.RecordRedaction(ctx, sess.ID, redaction.Counts); err != nil {
			o.logger.Warn("failed to record redaction event", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	platform := sess.Snip.Platform
	if platform == "" {
		platform = prompt.DetectPlatform()
	}
	userMessage := prompt.BuildExecuteMessage(actionID, redaction.Text, platform, prompt.DetectShell())

	ctx, cancel := context.WithTimeout(ctx, StreamTimeout)
	defer cancel()

	var buf strings.Builder
	var usage llmtransport.Usage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := o.transport.StreamExecute(gctx, prompt.ExecuteSystemPrompt, userMessage, func(chunk llmtransport.Chunk) error {
			buf.WriteString(chunk.Text)
			return nil
		})
		usage = u
		return err
	})
	if err := g.Wait(); err != nil {
		return action.ActionResult{}, pipelineerr.Transient("execute", err)
	}

	raw := buf.String()
	result, err := parseActionResult(raw)
	if err != nil {
		if salvaged, ok := salvageActionResult(raw, actionID); ok {
			o.logger.Info("execute response truncated, salvaged partial result", zap.String("session_id", sess.ID))
			result = &salvaged
		} else {
			result = &action.ActionResult{}
			*result = action.ErrorResult(actionID, "failed to parse the model's response")
		}
	}
	result.Metadata = mergeUsage(result.Metadata, usage)
	if o.audit != nil {
		if err := o.audit.RecordTokenUsage(ctx, sess.ID, "execute", usage.InputTokens, usage.OutputTokens); err != nil {
			o.logger.Warn("failed to record token usage", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	if result.Result.Kind == action.KindCommand && result.Result.Command != "" {
		if check := safety.CheckCommand(result.Result.Command); !check.Safe {
			o.logger.Warn("blocklist refused a proposed command", zap.String("session_id", sess.ID), zap.String("reason", check.Reason))
			if o.audit != nil {
				if err := o.audit.RecordBlocklistHit(ctx, sess.ID, result.Result.Command, check.Reason); err != nil {
					o.logger.Warn("failed to record blocklist hit", zap.String("session_id", sess.ID), zap.Error(err))
				}
			}
			blocked := action.ErrorResult(actionID, "Command blocked: "+check.Reason)
			result = &blocked
		}
	}

	return *result, nil
}

// runRegistryExecute calls a registered tool — built-in or plugin —
// directly through the registry, bypassing the EXECUTE LLM round trip
// entirely.
func (o *Orchestrator) runRegistryExecute(ctx context.Context, sess *action.Session, actionID, extractedText string) (action.ActionResult, error) {
	output, err := o.registry.Call(ctx, actionID, map[string]any{"text": extractedText})
	if err != nil {
		var pluginErr *pipelineerr.PluginError
		if errors.As(err, &pluginErr) {
			o.logger.Warn("plugin faulted and was stopped", zap.String("session_id", sess.ID), zap.String("plugin_id", pluginErr.PluginID), zap.Error(pluginErr.Err))
		}
		return action.ErrorResult(actionID, err.Error()), nil
	}
	return action.ActionResult{
		Status:   action.StatusSuccess,
		ActionID: actionID,
		Result:   action.ResultBody{Kind: action.KindText, Text: output},
	}, nil
}

func mergeUsage(meta *action.ResultMetadata, usage llmtransport.Usage) *action.ResultMetadata {
	if meta == nil {
		meta = &action.ResultMetadata{}
	}
	meta.TokensUsed = usage.InputTokens + usage.OutputTokens
	return meta
}
