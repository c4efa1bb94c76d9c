//go:build !windows

package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSharedReadOpener(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.zip")
	o := NewSharedReadOpener()

	assert.Error(t, o.TryOpenShared(path), "missing file")

	require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
	assert.NoError(t, o.TryOpenShared(path))

	// A writer holding an exclusive lock blocks the probe.
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Flock(int(w.Fd()), unix.LOCK_EX))
	assert.Error(t, o.TryOpenShared(path))

	require.NoError(t, w.Close())
	assert.NoError(t, o.TryOpenShared(path))
}
