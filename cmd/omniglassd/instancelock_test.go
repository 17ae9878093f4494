package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInstanceLockNoFileReturnsUnlocked(t *testing.T) {
	dir := t.TempDir()
	locked, pid, err := checkInstanceLock(dir)
	require.NoError(t, err)
	assert.False(t, locked, "want false with no lock file")
	assert.Zero(t, pid)
}

func TestLockInstanceThenCheckReportsLocked(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, lockInstance(dir))

	locked, pid, err := checkInstanceLock(dir)
	require.NoError(t, err)
	require.True(t, locked, "want true after lockInstance")
	assert.Equal(t, os.Getpid(), pid)
}

func TestUnlockInstanceRemovesLock(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, lockInstance(dir))
	require.NoError(t, unlockInstance(dir))

	locked, _, err := checkInstanceLock(dir)
	require.NoError(t, err)
	assert.False(t, locked, "want false after unlockInstance")
}

func TestUnlockInstanceWithNoLockFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, unlockInstance(dir))
}

func TestCheckInstanceLockCleansUpMalformedLockFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(instanceLockPath(dir), []byte("not-a-pid"), 0600))

	locked, _, err := checkInstanceLock(dir)
	require.NoError(t, err)
	assert.False(t, locked, "want false for a malformed lock file")

	_, err = os.Stat(instanceLockPath(dir))
	assert.True(t, os.IsNotExist(err), "expected malformed lock file to be removed")
}
