package web

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	l := NewRunLimiter(2, 10*time.Millisecond)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 2, l.Active())
	assert.Equal(t, 0, l.Available())

	assert.ErrorIs(t, l.Acquire(context.Background()), ErrTooManyRuns)

	l.Release()
	assert.Equal(t, 1, l.Active())
	assert.Equal(t, 1, l.Available())
	require.NoError(t, l.Acquire(context.Background()))
}

func TestRunLimiter_CanceledContext(t *testing.T) {
	l := NewRunLimiter(1, time.Second)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
}

func TestRunLimiter_NonPositiveCapacity(t *testing.T) {
	l := NewRunLimiter(0, time.Millisecond)
	assert.Equal(t, 1, l.Available())
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	l := NewRunLimiter(1, time.Second)
	require.NoError(t, l.Acquire(context.Background()))

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, l.WaitForDrain(ctx))
}

func TestRunLimiter_WaitForDrainTimeout(t *testing.T) {
	l := NewRunLimiter(1, time.Second)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}
