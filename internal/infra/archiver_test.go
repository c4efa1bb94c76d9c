package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

func helperArgs(args ...string) []string {
	return append([]string{"--"}, args...)
}

func newHelperRunner(t *testing.T) *ArchiverRunnerImpl {
	t.Helper()
	t.Setenv(helperEnv, "1")
	exe, err := os.Executable()
	require.NoError(t, err)
	return NewArchiverRunner(exe, NewProcessManager(), zap.NewNop())
}

func TestArchiverRunner_ExitZeroIsSuccess(t *testing.T) {
	r := newHelperRunner(t)

	res := r.Run(context.Background(), helperArgs("exit", "0"), 30*time.Second)

	assert.True(t, res.Succeeded)
	assert.Equal(t, 0, res.ExitStatus)
	assert.NoError(t, res.Err)
	assert.False(t, res.TimedOut)
}

func TestArchiverRunner_NonzeroExit(t *testing.T) {
	r := newHelperRunner(t)

	res := r.Run(context.Background(), helperArgs("exit", "2"), 30*time.Second)

	assert.False(t, res.Succeeded)
	assert.Equal(t, 2, res.ExitStatus)
	assert.ErrorIs(t, res.Err, domain.ErrExtractionFailed)
}

func TestArchiverRunner_Timeout(t *testing.T) {
	r := newHelperRunner(t)

	start := time.Now()
	res := r.Run(context.Background(), helperArgs("sleep", "30s"), 300*time.Millisecond)

	assert.False(t, res.Succeeded)
	assert.True(t, res.TimedOut)
	assert.ErrorIs(t, res.Err, domain.ErrExtractionTimeout)
	assert.Less(t, time.Since(start), 15*time.Second, "process must be killed, not awaited")
}

func TestArchiverRunner_CancelDoesNotKillRunningExtraction(t *testing.T) {
	r := newHelperRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	res := r.Run(ctx, helperArgs("sleep", "1s"), 30*time.Second)

	assert.True(t, res.Succeeded, "extraction must run to completion after cancel")
	assert.NoError(t, res.Err)
	assert.False(t, res.TimedOut)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestArchiverRunner_SpawnError(t *testing.T) {
	r := NewArchiverRunner(filepath.Join(t.TempDir(), "missing-peazip"), NewProcessManager(), zap.NewNop())

	res := r.Run(context.Background(), []string{"-ext2folder"}, time.Second)

	assert.False(t, res.Succeeded)
	assert.Equal(t, -1, res.ExitStatus)
	assert.Error(t, res.Err)
	assert.False(t, errors.Is(res.Err, domain.ErrExtractionFailed))
}

func TestArchiverLocator_Order(t *testing.T) {
	dir := t.TempDir()
	touch := func(p string) string {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte{}, 0755))
		return p
	}

	regDir := filepath.Join(dir, "registry")
	fallback := filepath.Join(dir, "fallback", archiverBinary())
	portable := filepath.Join(dir, "exe", "PeaZip", archiverBinary())
	configured := filepath.Join(dir, "configured", archiverBinary())

	l := &ArchiverLocator{
		Configured: configured,
		Registry:   func() []string { return []string{regDir} },
		Fallbacks:  []string{fallback},
		ExecDir:    filepath.Join(dir, "exe"),
		LookPath:   func(string) (string, error) { return "/from/path/peazip", nil },
	}

	assert.Equal(t, []string{
		configured,
		filepath.Join(regDir, archiverBinary()),
		fallback,
		portable,
	}, l.Candidates())

	// Nothing on disk: PATH wins.
	assert.Equal(t, "/from/path/peazip", l.Locate())

	touch(portable)
	assert.Equal(t, portable, l.Locate())
	touch(fallback)
	assert.Equal(t, fallback, l.Locate())
	touch(filepath.Join(regDir, archiverBinary()))
	assert.Equal(t, filepath.Join(regDir, archiverBinary()), l.Locate())
	touch(configured)
	assert.Equal(t, configured, l.Locate())
}

func TestArchiverLocator_NotFound(t *testing.T) {
	l := &ArchiverLocator{
		Fallbacks: []string{filepath.Join(t.TempDir(), "nope")},
		LookPath:  func(string) (string, error) { return "", errors.New("not found") },
	}
	assert.Empty(t, l.Locate())
}
