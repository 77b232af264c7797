package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdown_UrgentCrossesUnderOneHour(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	end := now.Add(3600 * time.Second)

	st := Countdown(end, now, DefaultAuctionWindow)
	assert.False(t, st.Urgent, "exactamente 1h no es urgente")
	assert.Equal(t, int64(1), st.Hours)

	st = Countdown(end, now.Add(time.Second), DefaultAuctionWindow)
	assert.True(t, st.Urgent)
	assert.False(t, st.Expired)
	assert.Equal(t, int64(3599), st.TotalSeconds)
	assert.Equal(t, int64(0), st.Hours)
	assert.Equal(t, int64(59), st.Minutes)
	assert.Equal(t, int64(59), st.Seconds)
}

func TestCountdown_PastEndIsExpired(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	st := Countdown(now.Add(-time.Minute), now, DefaultAuctionWindow)
	assert.True(t, st.Expired)
	assert.Zero(t, st.PercentageLeft)
	assert.Zero(t, st.TotalSeconds)

	st = Countdown(now, now, DefaultAuctionWindow)
	assert.True(t, st.Expired)
}

func TestCountdown_PercentageLeft(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	st := Countdown(now.Add(12*time.Hour), now, DefaultAuctionWindow)
	assert.InDelta(t, 50.0, st.PercentageLeft, 0.001)

	// más largo que la ventana → 100
	st = Countdown(now.Add(48*time.Hour), now, DefaultAuctionWindow)
	assert.InDelta(t, 100.0, st.PercentageLeft, 0.001)
}
