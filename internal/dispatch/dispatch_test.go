package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omni-glass/omniglass/internal/action"
)

func TestDispatchWritesFileResultToDesktopDir(t *testing.T) {
	dir := t.TempDir()
	d := New(dir, zap.NewNop())

	result := action.ActionResult{
		ActionID: "export_csv",
		Result:   action.ResultBody{Kind: action.KindFile, FileName: "data.csv", Content: "a,b\n1,2\n"},
	}
	require.NoError(t, d.Dispatch(context.Background(), result))

	got, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	require.NoError(t, err, "expected the file to exist")
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

func TestDispatchRejectsFileResultWithoutFilename(t *testing.T) {
	d := New(t.TempDir(), zap.NewNop())
	result := action.ActionResult{Result: action.ResultBody{Kind: action.KindFile, Content: "x"}}
	assert.Error(t, d.Dispatch(context.Background(), result), "expected an error for a file result with no filename")
}

func TestDispatchCommandResultIsNoOp(t *testing.T) {
	d := New(t.TempDir(), zap.NewNop())
	result := action.ActionResult{Result: action.ResultBody{Kind: action.KindCommand, Command: "echo hi"}}
	assert.NoError(t, d.Dispatch(context.Background(), result))
}

func TestDispatchTextResultIsNoOp(t *testing.T) {
	d := New(t.TempDir(), zap.NewNop())
	result := action.ActionResult{Result: action.ResultBody{Kind: action.KindText, Text: "hello"}}
	assert.NoError(t, d.Dispatch(context.Background(), result))
}

func TestDispatchUnknownKindErrors(t *testing.T) {
	d := New(t.TempDir(), zap.NewNop())
	result := action.ActionResult{Result: action.ResultBody{Kind: "bogus"}}
	assert.Error(t, d.Dispatch(context.Background(), result), "expected an error for an unknown result kind")
}

func TestWriteFileToPathCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deep", "out.txt")
	require.NoError(t, WriteFileToPath(path, "content"))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestExtractFirstCodeBlockWithLanguageTag(t *testing.T) {
	text := "Here is the fix:\n```python\nprint('hi')\n```\nThat's it."
	code, ok := ExtractFirstCodeBlock(text)
	require.True(t, ok, "expected a code block to be found")
	assert.Equal(t, "print('hi')", code)
}

func TestExtractFirstCodeBlockNoFenceReturnsFalse(t *testing.T) {
	_, ok := ExtractFirstCodeBlock("just plain text")
	assert.False(t, ok, "expected no code block to be found")
}

func TestExtractFirstCodeBlockTakesOnlyFirst(t *testing.T) {
	text := "```\nfirst\n```\nmiddle\n```\nsecond\n```"
	code, ok := ExtractFirstCodeBlock(text)
	require.True(t, ok)
	assert.Equal(t, "first", code)
}

func TestRunConfirmedCommandBlocklistRefusesDangerousCommand(t *testing.T) {
	d := New(t.TempDir(), zap.NewNop())
	_, err := d.RunConfirmedCommand(context.Background(), "rm -rf /")
	assert.Error(t, err, "expected the blocklist to refuse this command")
}

func TestRunConfirmedCommandCapturesOutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("echo behaves differently under cmd.exe")
	}
	d := New(t.TempDir(), zap.NewNop())
	outcome, err := d.RunConfirmedCommand(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "hello\n", outcome.Stdout)
}

func TestRunConfirmedCommandReportsNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exit code semantics differ under cmd.exe")
	}
	d := New(t.TempDir(), zap.NewNop())
	outcome, err := d.RunConfirmedCommand(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.ExitCode)
}
