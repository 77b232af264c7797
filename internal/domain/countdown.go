package domain

import "time"

const (
	// DefaultAuctionWindow is how long the engine keeps an auction open.
	DefaultAuctionWindow = 24 * time.Hour
	// UrgentThreshold marks the last stretch of an auction.
	UrgentThreshold = time.Hour
)

// CountdownState is the display state derived from an auction end time.
// Urgent is advisory; only the ledger can actually close an auction.
type CountdownState struct {
	TotalSeconds   int64
	Hours          int64
	Minutes        int64
	Seconds        int64
	PercentageLeft float64
	Expired        bool
	Urgent         bool
}

// Countdown derives the state at now for an auction ending at end.
// window is the full auction duration used for PercentageLeft.
func Countdown(end, now time.Time, window time.Duration) CountdownState {
	diff := end.Sub(now)
	total := int64(diff / time.Second)
	if diff <= 0 || total <= 0 {
		return CountdownState{Expired: true}
	}

	st := CountdownState{
		TotalSeconds: total,
		Hours:        total / 3600,
		Minutes:      (total % 3600) / 60,
		Seconds:      total % 60,
		Urgent:       time.Duration(total)*time.Second < UrgentThreshold,
	}
	if window > 0 {
		pct := float64(total) / window.Seconds() * 100
		st.PercentageLeft = min(100, max(0, pct))
	}
	return st
}
