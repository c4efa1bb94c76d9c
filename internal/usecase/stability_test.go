package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestProber(attempts int, opener *mockOpener) (*StabilityProberImpl, *[]time.Duration) {
	var slept []time.Duration
	p := NewStabilityProber(StabilityConfig{Attempts: attempts, Interval: time.Second}, opener, zap.NewNop())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestStabilityProber_StableOnFirstAttempt(t *testing.T) {
	opener := &mockOpener{}
	p, slept := newTestProber(10, opener)

	assert.True(t, p.WaitStable(context.Background(), "/dl/a.zip"))
	assert.Equal(t, 1, opener.calls)
	// The probe always waits before opening.
	assert.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestStabilityProber_StableAfterRetries(t *testing.T) {
	opener := &mockOpener{failures: 4, err: errors.New("sharing violation")}
	p, slept := newTestProber(10, opener)

	assert.True(t, p.WaitStable(context.Background(), "/dl/a.zip"))
	assert.Equal(t, 5, opener.calls)
	assert.Len(t, *slept, 5)
}

func TestStabilityProber_GivesUpAfterLastAttempt(t *testing.T) {
	opener := &mockOpener{failures: -1, err: errors.New("sharing violation")}
	p, slept := newTestProber(10, opener)

	assert.False(t, p.WaitStable(context.Background(), "/dl/a.zip"))
	assert.Equal(t, 10, opener.calls)
	assert.Len(t, *slept, 10)
}

func TestStabilityProber_StopsOnCancel(t *testing.T) {
	opener := &mockOpener{failures: -1, err: errors.New("locked")}
	p, _ := newTestProber(10, opener)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.WaitStable(ctx, "/dl/a.zip"))
	assert.Equal(t, 0, opener.calls)
}

func TestStabilityProber_DefaultAttempts(t *testing.T) {
	p := NewStabilityProber(StabilityConfig{}, &mockOpener{}, zap.NewNop())
	assert.Equal(t, 10, p.config.Attempts)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, sleepCtx(ctx, 0), context.Canceled)
}
