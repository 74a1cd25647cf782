package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"technician-dispatch/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	calls := 0
	op := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}

	err := retryWithBackoff(context.Background(), op, Options{Attempts: 5, InitialDelay: time.Millisecond}, logger.NewTestLogger(t), "probe")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	op := func(context.Context) error {
		calls++
		return errors.New("refused")
	}

	err := retryWithBackoff(context.Background(), op, Options{Attempts: 3, InitialDelay: time.Millisecond}, logger.NewTestLogger(t), "probe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_SingleAttempt(t *testing.T) {
	calls := 0
	op := func(context.Context) error {
		calls++
		return errors.New("refused")
	}

	err := retryWithBackoff(context.Background(), op, CLIOptions, logger.NewTestLogger(t), "probe")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	op := func(context.Context) error {
		cancel()
		return errors.New("refused")
	}

	err := retryWithBackoff(ctx, op, Options{Attempts: 5, InitialDelay: time.Hour}, logger.NewTestLogger(t), "probe")
	assert.ErrorIs(t, err, context.Canceled)
}
