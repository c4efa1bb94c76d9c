package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

func fastWatcherConfig() WatcherConfig {
	return WatcherConfig{PollTimeout: time.Millisecond, ErrorBackoff: time.Millisecond}
}

func sourceFactory(src *fakeSource) domain.EventSourceFactory {
	return func(string) (domain.EventSource, error) { return src, nil }
}

func TestDirectoryWatcher_DispatchesBatchInOrder(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})
	events := []domain.ChangeEvent{
		{Action: domain.ActionCreated, Filename: "a.zip"},
		{Action: domain.ActionRenamedTo, Filename: "b.rar"},
	}
	src := &fakeSource{results: []waitResult{{batch: fakeBatch{events: events}}}}
	disp := &recordingDispatcher{onCall: session.Stop}

	w := NewDirectoryWatcher(fastWatcherConfig(), session, sourceFactory(src), disp, zap.NewNop())
	require.NoError(t, w.Run(context.Background()))

	require.Equal(t, 1, disp.count())
	assert.Equal(t, events, disp.batches[0])
	assert.True(t, src.closed, "event source should be closed on exit")
}

func TestDirectoryWatcher_PausedDropsBatch(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})
	session.SetPaused(true)
	src := &fakeSource{results: []waitResult{
		{batch: fakeBatch{events: []domain.ChangeEvent{{Action: domain.ActionCreated, Filename: "a.zip"}}}},
	}}
	disp := &recordingDispatcher{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	w := NewDirectoryWatcher(fastWatcherConfig(), session, sourceFactory(src), disp, zap.NewNop())
	require.NoError(t, w.Run(ctx))

	assert.Equal(t, 0, src.remaining())
	assert.Equal(t, 0, disp.count(), "paused session must not dispatch")
}

func TestDirectoryWatcher_BacksOffAfterWaitFailure(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})
	src := &fakeSource{results: []waitResult{
		{err: fmt.Errorf("%w: handle closed", domain.ErrWaitFailure)},
		{batch: fakeBatch{events: []domain.ChangeEvent{{Action: domain.ActionCreated, Filename: "a.zip"}}}},
	}}
	disp := &recordingDispatcher{onCall: session.Stop}

	w := NewDirectoryWatcher(WatcherConfig{PollTimeout: time.Millisecond, ErrorBackoff: 5 * time.Second},
		session, sourceFactory(src), disp, zap.NewNop())
	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []time.Duration{5 * time.Second}, slept)
	assert.Equal(t, 1, disp.count(), "loop should retry after the backoff")
}

func TestDirectoryWatcher_MalformedBatchKeepsDecodedRecords(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})
	partial := []domain.ChangeEvent{{Action: domain.ActionCreated, Filename: "a.zip"}}
	src := &fakeSource{results: []waitResult{
		{batch: fakeBatch{events: partial, err: errors.New("malformed change record")}},
	}}
	disp := &recordingDispatcher{onCall: session.Stop}

	w := NewDirectoryWatcher(fastWatcherConfig(), session, sourceFactory(src), disp, zap.NewNop())
	require.NoError(t, w.Run(context.Background()))

	require.Equal(t, 1, disp.count())
	assert.Equal(t, partial, disp.batches[0])
}

func TestDirectoryWatcher_EmptyBatchNotDispatched(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})
	src := &fakeSource{results: []waitResult{{batch: fakeBatch{}}}}
	disp := &recordingDispatcher{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	w := NewDirectoryWatcher(fastWatcherConfig(), session, sourceFactory(src), disp, zap.NewNop())
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 0, disp.count())
}

func TestDirectoryWatcher_OpenFailureIdles(t *testing.T) {
	session := NewWatchSession("/missing", nopTracker{})
	open := func(dir string) (domain.EventSource, error) {
		return nil, fmt.Errorf("%w: %s", domain.ErrWatchUnavailable, dir)
	}
	disp := &recordingDispatcher{}
	w := NewDirectoryWatcher(fastWatcherConfig(), session, open, disp, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case <-done:
		t.Fatal("watcher should idle, not exit, when the directory is unavailable")
	case <-time.After(30 * time.Millisecond):
	}

	session.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not exit after stop")
	}
}

func TestDirectoryWatcher_BatchesAreSerialized(t *testing.T) {
	session := NewWatchSession("/downloads", nopTracker{})

	// Hold the session lock; the watcher must wait for it before dispatching.
	var held sync.WaitGroup
	held.Add(1)
	release := make(chan struct{})
	go session.Process(func() {
		held.Done()
		<-release
	})
	held.Wait()

	src := &fakeSource{results: []waitResult{
		{batch: fakeBatch{events: []domain.ChangeEvent{{Action: domain.ActionCreated, Filename: "a.zip"}}}},
	}}
	disp := &recordingDispatcher{onCall: session.Stop}
	w := NewDirectoryWatcher(fastWatcherConfig(), session, sourceFactory(src), disp, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, disp.count(), "dispatch must wait for the session lock")

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not finish")
	}
	assert.Equal(t, 1, disp.count())
}

func TestDefaultWatcherConfig(t *testing.T) {
	config := DefaultWatcherConfig()

	assert.Equal(t, time.Second, config.PollTimeout)
	assert.Equal(t, 5*time.Second, config.ErrorBackoff)

	w := NewDirectoryWatcher(WatcherConfig{}, NewWatchSession("/d", nopTracker{}), nil, nil, zap.NewNop())
	assert.Equal(t, config, w.config, "zero values fall back to defaults")
}
