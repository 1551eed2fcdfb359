package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(max int) Config {
	return Config{Enabled: true, MaxRetries: max, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 1.5}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var seen []int
	err := Do(context.Background(), fastConfig(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	boom := errors.New("down")
	err := Do(context.Background(), fastConfig(2), func(context.Context) error {
		calls++
		return boom
	}, nil)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("bad url")
	err := Do(context.Background(), fastConfig(5), func(context.Context) error {
		calls++
		return Permanent(boom)
	}, nil)

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDoDisabledRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{}, func(context.Context) error {
		calls++
		return errors.New("x")
	}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, fastConfig(3), func(context.Context) error { return nil }, nil)
	require.ErrorIs(t, err, context.Canceled)
}
