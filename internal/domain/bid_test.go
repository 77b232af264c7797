package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBid_Status(t *testing.T) {
	cases := []struct {
		name string
		bid  Bid
		want BidStatus
	}{
		{"open and active", Bid{SharesRequested: 10, RemainingShares: 10, Open: true, Active: true}, BidActive},
		{"partially outbid", Bid{SharesRequested: 10, RemainingShares: 4, Open: true, Active: true}, BidActive},
		{"closed while active", Bid{SharesRequested: 10, RemainingShares: 0, Open: false, Active: true}, BidOutbid},
		{"open flag but nothing left", Bid{SharesRequested: 10, RemainingShares: 0, Open: true, Active: true}, BidOutbid},
		{"auction ended, winning", Bid{SharesRequested: 10, RemainingShares: 10, Open: false, Active: false}, BidCompleted},
		{"auction ended, open flag", Bid{SharesRequested: 10, RemainingShares: 10, Open: true, Active: false}, BidCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.bid.Status())
		})
	}
}

func TestBid_ActiveImpliesRemainingShares(t *testing.T) {
	for remaining := uint64(0); remaining <= 3; remaining++ {
		for _, open := range []bool{true, false} {
			for _, active := range []bool{true, false} {
				b := Bid{SharesRequested: 3, RemainingShares: remaining, Open: open, Active: active}
				if b.Status() == BidActive {
					assert.Positive(t, b.RemainingShares)
					assert.True(t, b.Active)
				}
			}
		}
	}
}

func TestBid_Total(t *testing.T) {
	b := Bid{PricePerShare: 1_500_000, RemainingShares: 4}
	assert.Equal(t, Micro(6_000_000), b.Total())
}
