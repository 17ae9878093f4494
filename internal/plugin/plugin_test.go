package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPlugin(t *testing.T, dir, manifestJSON, entry string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFilename), []byte(manifestJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, entry), []byte("// test"), 0644))
}

func TestLoadManifestValid(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, `{
		"id": "com.example.test",
		"name": "Test Plugin",
		"version": "1.0.0",
		"runtime": "node",
		"entry": "index.js"
	}`, "index.js")

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "com.example.test", m.ID)
	assert.Equal(t, RuntimeNode, m.Runtime)
}

func TestLoadManifestRejectsUnknownPermissionsKey(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, `{
		"id": "com.example.test",
		"name": "Test Plugin",
		"version": "1.0.0",
		"runtime": "node",
		"entry": "index.js",
		"permissions": {"clipbord": true}
	}`, "index.js")

	_, err := LoadManifest(dir)
	assert.Error(t, err, "expected a typo'd permissions key to be rejected rather than silently ignored")
}

func TestLoadManifestRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, `{
		"id": "com.example.evil",
		"name": "Evil",
		"version": "1.0.0",
		"runtime": "node",
		"entry": "../../../etc/passwd"
	}`, "index.js")

	_, err := LoadManifest(dir)
	assert.Error(t, err, "expected an error for path traversal in entry")
}

func TestLoadManifestRejectsNonReverseDomainID(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, `{
		"id": "no-dots",
		"name": "Bad ID",
		"version": "1.0.0",
		"runtime": "node",
		"entry": "index.js"
	}`, "index.js")

	_, err := LoadManifest(dir)
	assert.Error(t, err, "expected an error for a non reverse-domain id")
}

func TestLoadManifestRejectsUnknownRuntime(t *testing.T) {
	dir := t.TempDir()
	writeTestPlugin(t, dir, `{
		"id": "com.example.test",
		"name": "Test",
		"version": "1.0.0",
		"runtime": "ruby",
		"entry": "index.js"
	}`, "index.js")

	_, err := LoadManifest(dir)
	assert.Error(t, err, "expected an error for an unknown runtime tag")
}

func TestComputeRiskLow(t *testing.T) {
	assert.Equal(t, RiskLow, ComputeRisk(Permissions{}, "/home/user/Documents"))
}

func TestComputeRiskMediumForClipboard(t *testing.T) {
	assert.Equal(t, RiskMedium, ComputeRisk(Permissions{Clipboard: true}, "/home/user/Documents"))
}

func TestComputeRiskHighForNetworkWildcard(t *testing.T) {
	p := Permissions{Network: []string{"*"}}
	assert.Equal(t, RiskHigh, ComputeRisk(p, "/home/user/Documents"))
}

func TestComputeRiskHighForShellPermission(t *testing.T) {
	p := Permissions{Shell: []string{"pip", "npm"}}
	assert.Equal(t, RiskHigh, ComputeRisk(p, "/home/user/Documents"))
}

func TestComputeRiskHighForFilesystemWriteOutsideDocuments(t *testing.T) {
	p := Permissions{Filesystem: []FSAccess{{Path: "/etc", Access: "write"}}}
	assert.Equal(t, RiskHigh, ComputeRisk(p, "/home/user/Documents"))
}

func TestComputeRiskHighForManySecretLikeEnvVars(t *testing.T) {
	p := Permissions{Environment: []string{"JIRA_API_KEY", "SLACK_TOKEN", "AWS_REGION"}}
	assert.Equal(t, RiskHigh, ComputeRisk(p, "/home/user/Documents"))
}

func TestComputeRiskMediumForFewEnvVars(t *testing.T) {
	p := Permissions{Environment: []string{"MY_LOG_LEVEL"}}
	assert.Equal(t, RiskMedium, ComputeRisk(p, "/home/user/Documents"))
}

func TestHashPermissionsIsStableAndPrefixed(t *testing.T) {
	p := Permissions{Clipboard: true}
	h1 := HashPermissions(p)
	h2 := HashPermissions(p)
	assert.Equal(t, h1, h2, "expected hash to be stable across calls")
	assert.True(t, strings.HasPrefix(h1, "sha256:"), "hash = %q, want sha256: prefix", h1)
}

func TestHashPermissionsDiffersOnChange(t *testing.T) {
	h1 := HashPermissions(Permissions{})
	h2 := HashPermissions(Permissions{Network: []string{"evil.com"}})
	assert.NotEqual(t, h1, h2, "expected differing permissions to hash differently")
}

func testManifest(perms Permissions) Manifest {
	return Manifest{ID: "com.test.plugin", Name: "Test", Version: "1.0.0", Runtime: RuntimeNode, Entry: "index.js", Permissions: perms}
}

func TestCheckApprovalNewPluginNeedsApproval(t *testing.T) {
	store := newApprovalStore()
	assert.Equal(t, StatusNeedsApproval, CheckApproval(store, testManifest(Permissions{})))
}

func TestCheckApprovalApprovedPluginLoadsSilently(t *testing.T) {
	store := newApprovalStore()
	m := testManifest(Permissions{})
	RecordApproval(&store, m, time.Now())

	assert.Equal(t, StatusApproved, CheckApproval(store, m))
}

func TestCheckApprovalPermissionsChangeTriggersReprompt(t *testing.T) {
	store := newApprovalStore()
	m := testManifest(Permissions{})
	RecordApproval(&store, m, time.Now())

	changed := testManifest(Permissions{Network: []string{"evil.com"}})
	assert.Equal(t, StatusPermissionsChanged, CheckApproval(store, changed))
}

func TestCheckApprovalDeniedPluginStaysDenied(t *testing.T) {
	store := newApprovalStore()
	RecordDenial(&store, "com.test.plugin", time.Now())

	assert.Equal(t, StatusDenied, CheckApproval(store, testManifest(Permissions{})))
}

func TestSaveAndLoadApprovalStoreRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin-approvals.json")

	store := newApprovalStore()
	m := testManifest(Permissions{Clipboard: true})
	RecordApproval(&store, m, time.Now())

	require.NoError(t, SaveApprovalStore(path, store))

	loaded := LoadApprovalStore(path)
	assert.Equal(t, StatusApproved, CheckApproval(loaded, m), "after roundtrip")
}

func TestApprovalStoreOnDiskShapeMatchesSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin-approvals.json")

	store := newApprovalStore()
	RecordApproval(&store, testManifest(Permissions{Clipboard: true}), time.Now())
	require.NoError(t, SaveApprovalStore(path, store))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	entry, ok := doc["com.test.plugin"]
	require.True(t, ok, "expected the document to be keyed directly by plugin id")
	assert.Equal(t, true, entry["approved"])
	assert.NotEmpty(t, entry["approved_at"])
	assert.NotEmpty(t, entry["permissions_hash"])
}

func TestPendingApprovalsFiltersApprovedAndDenied(t *testing.T) {
	store := newApprovalStore()
	approved := testManifest(Permissions{})
	RecordApproval(&store, approved, time.Now())

	pendingManifest := Manifest{ID: "com.pending.plugin", Name: "Pending", Version: "1.0.0", Runtime: RuntimeNode, Entry: "index.js"}

	pending := PendingApprovals(store, []Manifest{approved, pendingManifest})
	require.Len(t, pending, 1)
	assert.Equal(t, "com.pending.plugin", pending[0].ID)
}

func TestFilterEnvironmentIncludesEssentialsAndIdentity(t *testing.T) {
	filtered := FilterEnvironment(Permissions{}, "com.test.plugin")
	assert.Equal(t, "com.test.plugin", filtered["OMNI_GLASS_PLUGIN_ID"])
	assert.Equal(t, "/tmp/omni-glass-com.test.plugin", filtered["TMPDIR"])
}

func TestFilterEnvironmentStripsUndeclaredSecrets(t *testing.T) {
	t.Setenv("TEST_SECRET_KEY_OG", "sk-secret-12345")
	filtered := FilterEnvironment(Permissions{}, "com.test.plugin")
	_, ok := filtered["TEST_SECRET_KEY_OG"]
	assert.False(t, ok, "expected undeclared secret-like var to be stripped")
}

func TestFilterEnvironmentIncludesDeclaredVars(t *testing.T) {
	t.Setenv("JIRA_TOKEN_OG_TEST", "jira-123")
	filtered := FilterEnvironment(Permissions{Environment: []string{"JIRA_TOKEN_OG_TEST"}}, "com.test.plugin")
	assert.Equal(t, "jira-123", filtered["JIRA_TOKEN_OG_TEST"])
}

func TestRiskScoreCombinedPermissionsEscalate(t *testing.T) {
	score := RiskScore(Permissions{
		Clipboard:   true,
		Network:     []string{"api.example.com"},
		Environment: []string{"API_TOKEN"},
	})
	assert.Equal(t, 5, score, "1 clipboard + 2 network + 2 env")
}

func TestRiskScoreShellIsHigh(t *testing.T) {
	assert.Equal(t, 5, RiskScore(Permissions{Shell: []string{"echo"}}))
}

func TestPendingApprovalDescriptorsAttachesBothRiskSignals(t *testing.T) {
	store := newApprovalStore()
	m := Manifest{
		ID: "com.pending.plugin", Name: "Pending", Version: "1.0.0", Runtime: RuntimeNode, Entry: "index.js",
		Permissions: Permissions{Shell: []string{"echo"}},
	}

	descriptors := PendingApprovalDescriptors(store, []Manifest{m}, "/home/user/Documents")
	require.Len(t, descriptors, 1)
	assert.Equal(t, RiskHigh, descriptors[0].Risk)
	assert.Equal(t, 5, descriptors[0].RiskScore)
	assert.Equal(t, StatusNeedsApproval, descriptors[0].Status)
}
