package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()
	got := ExpandPath("~/foo/bar")
	want := filepath.Clean(filepath.Join(home, "foo/bar"))
	assert.Equal(t, want, got)
}

func TestLoadUserConfigCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.True(t, FileExists(filepath.Join(dir, "config.toml")), "expected config.toml to be created")
}

func TestSaveAndLoadUserConfigRoundtrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultUserConfig()
	cfg.PluginsEnabled = true
	require.NoError(t, SaveUserConfig(cfg, dir))

	loaded, err := LoadUserConfig(dir)
	require.NoError(t, err)
	assert.True(t, loaded.PluginsEnabled, "expected PluginsEnabled to round-trip as true")
}

func TestPluginsConfigEnableDisable(t *testing.T) {
	pc := &PluginsConfig{}
	pc.SetPluginEnabled("com.example.plugin", true)
	assert.True(t, pc.GetPluginEnabled("com.example.plugin"))
	pc.SetPluginEnabled("com.example.plugin", false)
	assert.False(t, pc.GetPluginEnabled("com.example.plugin"))
}

func TestUpdateProviderFieldUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadUserConfig(dir)
	require.NoError(t, err)
	assert.Error(t, UpdateProviderField(dir, "nonexistent", "model", "x"))
}

func TestEnsureDataDirPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, EnsureDataDirPermissions(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}
