package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteToDesktop writes content under the dispatcher's desktop directory
// with the given filename, creating the directory if necessary, and
// returns the resulting path (spec §4.10: "on success, surface the
// resulting path").
func (d *Dispatcher) WriteToDesktop(filename, content string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("dispatch: file result carries no filename")
	}
	if err := os.MkdirAll(d.desktopDir, 0755); err != nil {
		return "", fmt.Errorf("dispatch: creating %s: %w", d.desktopDir, err)
	}
	path := filepath.Join(d.desktopDir, filepath.Base(filename))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("dispatch: writing %s: %w", path, err)
	}
	return path, nil
}

// WriteFileToPath writes content to an explicit, user-chosen path
// (the `write_file_to_path` host command, spec §6), rather than the
// desktop default.
func WriteFileToPath(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("dispatch: creating parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("dispatch: writing %s: %w", path, err)
	}
	return nil
}
