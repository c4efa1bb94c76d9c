//go:build !windows

package infra

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

func TestDirectoryEventSource_MissingDir(t *testing.T) {
	_, err := NewDirectoryEventSource(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrWatchUnavailable)
}

func TestDirectoryEventSource_TimeoutWhenIdle(t *testing.T) {
	src, err := NewDirectoryEventSource(t.TempDir())
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Wait(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrWaitTimeout)
}

func TestDirectoryEventSource_CreateAndRename(t *testing.T) {
	dir := t.TempDir()
	src, err := NewDirectoryEventSource(dir)
	require.NoError(t, err)
	defer src.Close()

	partial := filepath.Join(dir, "report.zip.part")
	require.NoError(t, os.WriteFile(partial, []byte("PK"), 0644))
	require.NoError(t, os.Rename(partial, filepath.Join(dir, "report.zip")))

	var created []string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && len(created) < 2 {
		batch, err := src.Wait(context.Background(), time.Second)
		if err != nil {
			continue
		}
		events, err := batch.Events()
		require.NoError(t, err)
		for _, ev := range events {
			if ev.Action == domain.ActionCreated {
				created = append(created, ev.Filename)
			}
		}
	}

	assert.Equal(t, []string{"report.zip.part", "report.zip"}, created)
}

func TestDirectoryEventSource_CancelledContext(t *testing.T) {
	src, err := NewDirectoryEventSource(t.TempDir())
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Wait(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
