package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the platform-specific configuration directory.
// Linux/Mac: ~/.config/omni-glass
// Windows: %USERPROFILE%\.config\omni-glass
func GetConfigDir() string {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		return filepath.Join(userProfile, ".config", "omni-glass")
	}
	home := os.Getenv("HOME")
	return filepath.Join(home, ".config", "omni-glass")
}

// GetDefaultDataDir returns the platform-specific default data directory.
func GetDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, "omni-glass")
	}
	home := os.Getenv("HOME")
	return filepath.Join(home, ".local", "share", "omni-glass")
}

// GetCacheDir returns the platform-specific cache directory, used for
// secure temp files that must never sync to cloud storage.
func GetCacheDir() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, "omni-glass")
	}
	home := os.Getenv("HOME")
	return filepath.Join(home, ".cache", "omni-glass")
}

// GetSettingsFilePath returns the path to settings.toml.
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetPluginsDir returns the directory scanned for plugin subdirectories
// (each holding an omni-glass.plugin.json manifest, spec §4.6).
func GetPluginsDir() string {
	return filepath.Join(GetConfigDir(), "plugins")
}

// GetApprovalRecordPath returns the path to the approval record file (§6).
func GetApprovalRecordPath() string {
	return filepath.Join(GetConfigDir(), "plugin-approvals.json")
}

// GetPluginConfigDir returns the directory holding per-plugin configuration.
func GetPluginConfigDir() string {
	return filepath.Join(GetConfigDir(), "plugin-config")
}

// GetDocumentsDir returns the user's Documents directory, the subtree
// plugin.ComputeRisk treats as the boundary for "safe" filesystem writes
// (spec §4.6).
func GetDocumentsDir() string {
	return filepath.Join(GetHomeDir(), "Documents")
}

// GetHomeDir returns the user's home directory across platforms.
func GetHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home == "" {
			home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		}
		if home == "" {
			home = "C:\\"
		}
		return home
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/"
	}
	return home
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}

// EnsureDir creates a directory if it doesn't exist (0700 - user-only access).
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions ensures the data directory has 0700 permissions.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dataDir, 0700)
		}
		return err
	}
	if info.Mode().Perm() != 0700 {
		return os.Chmod(dataDir, 0700)
	}
	return nil
}

// GetTempDir returns the secure temp directory, always under the cache
// directory (never the data directory, to avoid cloud sync).
func GetTempDir() string {
	return filepath.Join(GetCacheDir(), "tmp")
}

// CleanupTempDir removes the temp directory if it exists.
func CleanupTempDir() error {
	tmpDir := GetTempDir()
	if _, err := os.Stat(tmpDir); err == nil {
		return os.RemoveAll(tmpDir)
	}
	return nil
}

// CreateTempDir creates the secure temp directory with 0700 permissions.
func CreateTempDir() error {
	return os.MkdirAll(GetTempDir(), 0700)
}

// NormalizeDataDirectory normalizes a data directory path, appending an
// omni-glass/ segment unless one is already present.
func NormalizeDataDirectory(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("data directory path cannot be empty")
	}
	expanded := ExpandPath(input)
	if filepath.Base(expanded) == "omni-glass" {
		return expanded, nil
	}
	candidate := filepath.Join(expanded, "omni-glass")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return candidate, nil
}
