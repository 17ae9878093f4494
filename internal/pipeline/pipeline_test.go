package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/action"
	"github.com/omni-glass/omniglass/internal/llmtransport"
	"github.com/omni-glass/omniglass/internal/registry"
	"github.com/omni-glass/omniglass/internal/safety"
)

// fakeTransport drives StreamClassify/StreamExecute from a fixed script
// of chunks, so tests can exercise the skeleton-then-menu and
// parse-or-salvage paths deterministically.
type fakeTransport struct {
	classifyChunks []string
	executeChunks  []string
	isRemote       bool
	classifyErr    error
	executeErr     error
}

func (f *fakeTransport) StreamClassify(ctx context.Context, systemPrompt, userMessage string, onChunk llmtransport.StreamFunc) (llmtransport.Usage, error) {
	if f.classifyErr != nil {
		return llmtransport.Usage{}, f.classifyErr
	}
	for _, c := range f.classifyChunks {
		if err := onChunk(llmtransport.Chunk{Text: c}); err != nil {
			return llmtransport.Usage{}, err
		}
	}
	return llmtransport.Usage{InputTokens: 10, OutputTokens: 20}, nil
}

func (f *fakeTransport) StreamExecute(ctx context.Context, systemPrompt, userMessage string, onChunk llmtransport.StreamFunc) (llmtransport.Usage, error) {
	if f.executeErr != nil {
		return llmtransport.Usage{}, f.executeErr
	}
	for _, c := range f.executeChunks {
		if err := onChunk(llmtransport.Chunk{Text: c}); err != nil {
			return llmtransport.Usage{}, err
		}
	}
	return llmtransport.Usage{InputTokens: 5, OutputTokens: 15}, nil
}

func (f *fakeTransport) IsRemote() bool { return f.isRemote }
func (f *fakeTransport) Label() string  { return "fake" }

type fakeOCR struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeOCR) Recognize(ctx context.Context, image []byte, level action.RecognitionLevel) (string, float64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.confidence, nil
}

type recordingSink struct {
	skeletons []SkeletonEvent
	menus     []MenuEvent
	results   []ResultEvent
	failures  []FailedEvent
}

func (s *recordingSink) OnSkeleton(e SkeletonEvent) { s.skeletons = append(s.skeletons, e) }
func (s *recordingSink) OnMenu(e MenuEvent)         { s.menus = append(s.menus, e) }
func (s *recordingSink) OnResult(e ResultEvent)     { s.results = append(s.results, e) }
func (s *recordingSink) OnFailed(e FailedEvent)     { s.failures = append(s.failures, e) }

const validMenuJSON = `{"contentType":"error","confidence":0.9,"summary":"A stack trace","actions":[{"id":"fix_error","label":"Fix It","icon":"wrench","priority":1,"description":"Suggest a fix","requiresExecution":true}]}`

func newTestOrchestrator(transport llmtransport.Transport, ocr OCRProvider, reg *registry.Registry) *Orchestrator {
	if reg == nil {
		reg = registry.New(nil)
	}
	return New(transport, reg, ocr, nil, nil, zap.NewNop())
}

// stubAuditSink records every call it receives instead of writing to a
// real ledger, so the orchestrator tests can assert on what it reports.
type stubAuditSink struct {
	redactions    []map[safety.Label]int
	blocklistHits []string
	tokenUsage    []string
}

func (s *stubAuditSink) RecordRedaction(ctx context.Context, sessionID string, counts map[safety.Label]int) error {
	s.redactions = append(s.redactions, counts)
	return nil
}

func (s *stubAuditSink) RecordBlocklistHit(ctx context.Context, sessionID, command, reason string) error {
	s.blocklistHits = append(s.blocklistHits, command)
	return nil
}

func (s *stubAuditSink) RecordTokenUsage(ctx context.Context, sessionID, phase string, inputTokens, outputTokens int) error {
	s.tokenUsage = append(s.tokenUsage, phase)
	return nil
}

func TestProcessSnipHappyPath(t *testing.T) {
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}}
	ocr := &fakeOCR{text: "Traceback...", confidence: 0.95}
	o := newTestOrchestrator(transport, ocr, nil)
	sink := &recordingSink{}

	sess, err := o.ProcessSnip(context.Background(), []byte("png-bytes"), action.SnipContext{Platform: "linux"}, sink)
	require.NoError(t, err)
	assert.Equal(t, action.PhaseAwaitClick, sess.Phase)
	require.NotNil(t, sess.Menu)
	assert.Equal(t, action.ContentError, sess.Menu.ContentType)
	assert.Len(t, sink.menus, 1, "expected exactly one menu event")
}

func TestProcessSnipEmptyOCRTextFails(t *testing.T) {
	transport := &fakeTransport{}
	ocr := &fakeOCR{text: ""}
	o := newTestOrchestrator(transport, ocr, nil)
	sink := &recordingSink{}

	sess, err := o.ProcessSnip(context.Background(), []byte("png"), action.SnipContext{}, sink)
	assert.Error(t, err, "expected an error for empty OCR text")
	assert.Equal(t, action.PhaseFailed, sess.Phase)
	assert.Len(t, sink.failures, 1)
}

func TestProcessSnipOCRTransientErrorFails(t *testing.T) {
	transport := &fakeTransport{}
	ocr := &fakeOCR{err: errors.New("vision API unreachable")}
	o := newTestOrchestrator(transport, ocr, nil)

	sess, err := o.ProcessSnip(context.Background(), []byte("png"), action.SnipContext{}, nil)
	assert.Error(t, err)
	assert.Equal(t, action.PhaseFailed, sess.Phase)
}

func TestRunClassifyFallsBackOnUnparseableResponse(t *testing.T) {
	transport := &fakeTransport{classifyChunks: []string{"not json at all"}}
	o := newTestOrchestrator(transport, nil, nil)
	sink := &recordingSink{}

	sess, err := o.ExecuteTextCommand(context.Background(), "hello world", "linux", sink)
	require.NoError(t, err)
	assert.Equal(t, action.ContentUnknown, sess.Menu.ContentType, "expected the fallback menu")
	assert.NotEmpty(t, sess.Menu.Actions, "fallback menu must carry actions")
}

func TestExecuteTextCommandSkipsOCR(t *testing.T) {
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}}
	o := newTestOrchestrator(transport, nil, nil)

	sess, err := o.ExecuteTextCommand(context.Background(), "explain this", "macos", NopEventSink{})
	require.NoError(t, err)
	assert.Equal(t, action.RecognitionAccurate, sess.Snip.RecognitionLevel)
}

func TestExecuteActionRejectsSessionNotAwaitingClick(t *testing.T) {
	o := newTestOrchestrator(&fakeTransport{}, nil, nil)
	sess := &action.Session{ID: "sess-1", Phase: action.PhaseDone}
	o.store(sess)

	_, err := o.ExecuteAction(context.Background(), "sess-1", "explain", nil)
	assert.Error(t, err, "expected an error executing a session that is not awaiting a click")
}

func TestExecuteActionHappyPathTextResult(t *testing.T) {
	transport := &fakeTransport{
		classifyChunks: []string{validMenuJSON},
		executeChunks:  []string{`{"status":"success","actionId":"fix_error","result":{"type":"text","text":"do this"}}`},
	}
	o := newTestOrchestrator(transport, nil, nil)

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")

	result, err := o.ExecuteAction(context.Background(), sess.ID, "fix_error", nil)
	require.NoError(t, err)
	assert.Equal(t, action.StatusSuccess, result.Status)
	assert.Equal(t, "do this", result.Result.Text)

	updated, _ := o.Session(sess.ID)
	assert.Equal(t, action.PhaseDone, updated.Phase)
}

func TestExecuteActionBlocklistConvertsToError(t *testing.T) {
	transport := &fakeTransport{
		classifyChunks: []string{validMenuJSON},
		executeChunks:  []string{`{"status":"needs_confirmation","actionId":"fix_error","result":{"type":"command","command":"rm -rf /"}}`},
	}
	o := newTestOrchestrator(transport, nil, nil)

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")
	result, err := o.ExecuteAction(context.Background(), sess.ID, "fix_error", nil)
	require.NoError(t, err)
	assert.Equal(t, action.StatusError, result.Status, "blocklist must convert the result")
}

func TestExecuteActionSalvagesTruncatedResponse(t *testing.T) {
	transport := &fakeTransport{
		classifyChunks: []string{validMenuJSON},
		executeChunks:  []string{`{"status":"success","actionId":"fix_error","result":{"type":"text","text":"truncated mid senten`},
	}
	o := newTestOrchestrator(transport, nil, nil)

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")
	result, err := o.ExecuteAction(context.Background(), sess.ID, "fix_error", nil)
	require.NoError(t, err)
	assert.Equal(t, "truncated mid senten", result.Result.Text, "want the salvaged partial text")
}

func TestExecuteActionUnknownSessionErrors(t *testing.T) {
	o := newTestOrchestrator(&fakeTransport{}, nil, nil)
	_, err := o.ExecuteAction(context.Background(), "does-not-exist", "explain", nil)
	assert.Error(t, err, "expected an error for an unknown session")
}

func TestPluginActionSkipsExecuteLLM(t *testing.T) {
	reg := registry.New(nil)
	reg.RegisterPluginTools("com.example.tool", []registry.Tool{{Name: "ping", Description: "pings"}})
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}}
	o := newTestOrchestrator(transport, nil, reg)
	o.registry.SetPluginCaller(stubPluginCaller{output: "pong"})

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")
	result, err := o.ExecuteAction(context.Background(), sess.ID, "com.example.tool:ping", nil)
	require.NoError(t, err)
	// The execute transport script only has one queued response; if the
	// plugin path had fallen through to the LLM, parsing would have
	// failed since executeChunks is empty.
	assert.Equal(t, "pong", result.Result.Text)
}

func TestBuiltinActionSkipsExecuteLLM(t *testing.T) {
	reg := registry.New(nil)
	reg.RegisterBuiltin("copy_text", "copy", nil, func(ctx context.Context, args map[string]any) (string, error) {
		return args["text"].(string) + "!", nil
	})
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}}
	o := newTestOrchestrator(transport, nil, reg)

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")
	result, err := o.ExecuteAction(context.Background(), sess.ID, "copy_text", nil)
	require.NoError(t, err)
	// Same reasoning as TestPluginActionSkipsExecuteLLM: executeChunks is
	// empty, so a fallthrough to the EXECUTE LLM would have surfaced as a
	// parse failure instead of the built-in handler's echoed text.
	assert.Equal(t, "boom!", result.Result.Text)
}

func TestRunClassifyRecordsTokenUsageWithAuditSink(t *testing.T) {
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}}
	audit := &stubAuditSink{}
	o := New(transport, registry.New(nil), nil, nil, audit, zap.NewNop())

	_, err := o.ExecuteTextCommand(context.Background(), "hello", "linux", nil)
	require.NoError(t, err)
	require.Len(t, audit.tokenUsage, 1)
	assert.Equal(t, "classify", audit.tokenUsage[0])
}

func TestRunClassifyRecordsRedactionWithAuditSink(t *testing.T) {
	transport := &fakeTransport{classifyChunks: []string{validMenuJSON}, isRemote: true}
	audit := &stubAuditSink{}
	o := New(transport, registry.New(nil), nil, nil, audit, zap.NewNop())

	text := "my ssn is 123-45-6789"
	_, err := o.ExecuteTextCommand(context.Background(), text, "linux", nil)
	require.NoError(t, err)
	require.Len(t, audit.redactions, 1)
	assert.Equal(t, 1, audit.redactions[0][safety.LabelSSN])
}

func TestExecuteActionRecordsBlocklistHitWithAuditSink(t *testing.T) {
	transport := &fakeTransport{
		classifyChunks: []string{validMenuJSON},
		executeChunks:  []string{`{"status":"needs_confirmation","actionId":"fix_error","result":{"type":"command","command":"rm -rf /"}}`},
	}
	audit := &stubAuditSink{}
	o := New(transport, registry.New(nil), nil, nil, audit, zap.NewNop())

	sess, err := o.ExecuteTextCommand(context.Background(), "boom", "linux", nil)
	require.NoError(t, err, "classify failed")
	_, err = o.ExecuteAction(context.Background(), sess.ID, "fix_error", nil)
	require.NoError(t, err)
	require.Len(t, audit.blocklistHits, 1)
	assert.Equal(t, "rm -rf /", audit.blocklistHits[0])
	assert.Len(t, audit.tokenUsage, 2, "want classify and execute entries")
}

type stubPluginCaller struct {
	output string
}

func (s stubPluginCaller) CallTool(ctx context.Context, pluginID, toolName string, args map[string]any) (string, error) {
	return s.output, nil
}

func (s stubPluginCaller) Stop(pluginID string) error { return nil }
