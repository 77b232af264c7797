package countdown_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/application/countdown"
	"github.com/alejandrodnm/influstock/internal/domain"
)

// fakeClock avanza un segundo cada vez que se consulta.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

func TestRun_StopsOnExpiry(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	m := countdown.NewMonitor(start.Add(3*time.Second),
		countdown.WithClock(clock.Now),
		countdown.WithTick(time.Millisecond),
	)

	var states []domain.CountdownState
	err := m.Run(context.Background(), func(st domain.CountdownState) {
		states = append(states, st)
	})
	require.NoError(t, err)

	require.Len(t, states, 4)
	assert.Equal(t, int64(3), states[0].TotalSeconds)
	assert.Equal(t, int64(1), states[2].TotalSeconds)
	assert.True(t, states[2].Urgent)
	assert.True(t, states[3].Expired)
	assert.Zero(t, states[3].PercentageLeft)
}

func TestRun_AlreadyExpiredEmitsOnce(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := countdown.NewMonitor(now.Add(-time.Hour), countdown.WithClock(func() time.Time { return now }))

	calls := 0
	err := m.Run(context.Background(), func(st domain.CountdownState) {
		calls++
		assert.True(t, st.Expired)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := countdown.NewMonitor(now.Add(24*time.Hour),
		countdown.WithClock(func() time.Time { return now }),
		countdown.WithTick(time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	calls := 0
	err := m.Run(ctx, func(st domain.CountdownState) {
		mu.Lock()
		calls++
		mu.Unlock()
		assert.False(t, st.Expired)
		assert.False(t, st.Urgent)
		assert.InDelta(t, 100.0, st.PercentageLeft, 0.001)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, calls, 1)
}

func TestCurrent_UsesWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := countdown.NewMonitor(now.Add(6*time.Hour),
		countdown.WithClock(func() time.Time { return now }),
		countdown.WithWindow(12*time.Hour),
	)
	st := m.Current()
	assert.InDelta(t, 50.0, st.PercentageLeft, 0.001)
	assert.Equal(t, int64(6), st.Hours)
}
