package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// instanceLockPath is omniglassd.lock inside the data directory, holding
// the PID of whichever process currently owns the host-command loop.
//
// Grounded on hkdb-otui/storage/sessions.go's
// CheckOTUIInstanceLock/LockOTUIInstance/UnlockOTUIInstance trio; adapted
// to a free function since internal/audit has no lock-file concept and
// there is no storage package left to host these on a receiver.
func instanceLockPath(dataDir string) string {
	return filepath.Join(dataDir, "omniglassd.lock")
}

// checkInstanceLock reports whether another omniglassd is already
// running against dataDir, and if so, its PID.
func checkInstanceLock(dataDir string) (locked bool, runningPID int, err error) {
	lockPath := instanceLockPath(dataDir)

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("reading instance lock: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	if _, err := os.FindProcess(pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	return true, pid, nil
}

// lockInstance writes this process's PID to the lock file.
func lockInstance(dataDir string) error {
	return os.WriteFile(instanceLockPath(dataDir), []byte(fmt.Sprintf("%d", os.Getpid())), 0600)
}

// unlockInstance removes the lock file, ignoring its absence.
func unlockInstance(dataDir string) error {
	err := os.Remove(instanceLockPath(dataDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
