package notify_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/adapters/notify"
	"github.com/alejandrodnm/influstock/internal/domain"
)

func makeSnapshot(connected bool) domain.Snapshot {
	end := time.Now().Add(2 * time.Hour)
	past := time.Now().Add(-72 * time.Hour)
	snap := domain.Snapshot{
		BuiltAt:    time.Now(),
		Generation: 3,
		InAuction: domain.LoadedView([]domain.StockSummary{{
			Stock:     domain.Stock{ID: 2, Ticker: "DOGE", AuctionEnd: &end, ActiveAuction: true},
			State:     domain.LifecycleInAuction,
			TotalBids: 4,
			LowestBid: 1_234_567,
		}}, nil),
		InSale: domain.LoadedView([]domain.StockSummary{{
			Stock:             domain.Stock{ID: 1, Ticker: "WOOF", AuctionEnd: &past},
			State:             domain.LifecycleTrading,
			TotalShareholders: 12,
			LowestPrice:       2_000_000,
		}}, nil),
		MyStocks: domain.NotConnectedView[domain.StockSummary](),
		MyBids:   domain.NotConnectedView[domain.Bid](),
		MyShares: domain.NotConnectedView[domain.Holding](),
		MyOrders: domain.NotConnectedView[domain.Order](),
	}
	if connected {
		snap.Connected = true
		snap.Account = "chihuahua1me"
		snap.MyStocks = domain.LoadedView([]domain.StockSummary{}, nil)
		snap.MyBids = domain.LoadedView([]domain.Bid{{
			ID: 9, StockID: 2, Bidder: "chihuahua1me", SharesRequested: 10, RemainingShares: 6,
			PricePerShare: 1_500_000, Open: true, Active: true,
		}}, nil)
		snap.MyShares = domain.LoadedView([]domain.Holding{{
			StockID: 1, Ticker: "WOOF", Shares: 200, ValuePerShare: 1_500_000,
		}}, nil)
		snap.MyOrders = domain.LoadedView[domain.Order](nil, errors.New("Stock 1 not found"))
	}
	return snap
}

func TestConsole_NotifySnapshot_Disconnected(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, "uhuahua")

	require.NoError(t, n.NotifySnapshot(context.Background(), makeSnapshot(false)))

	out := buf.String()
	assert.Contains(t, out, "not connected")
	assert.Contains(t, out, "DOGE")
	assert.Contains(t, out, "1.234567 HUAHUA")
	assert.Contains(t, out, "WOOF")
	assert.Contains(t, out, "2.000000 HUAHUA")
	assert.Contains(t, out, "MY BIDS ── (connect a wallet)")
}

func TestConsole_NotifySnapshot_Connected(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, "uhuahua")

	require.NoError(t, n.NotifySnapshot(context.Background(), makeSnapshot(true)))

	out := buf.String()
	assert.Contains(t, out, "chihuahua1me")
	assert.Contains(t, out, "MY STOCKS (0)")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "9.000000 HUAHUA")   // 6 remaining × 1.5
	assert.Contains(t, out, "300.000000 HUAHUA") // 200 × 1.5
	assert.Contains(t, out, "⚠ Stock 1 not found")
	assert.NotContains(t, out, "connect a wallet")
}

func TestConsole_PrintResult(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, "uhuahua")

	n.PrintResult(domain.TxResult{TxHash: "ABC", Height: 10}, nil)
	n.PrintResult(domain.TxResult{}, &domain.SubmissionError{Message: "Generic error: Auction has ended"})
	n.PrintResult(domain.TxResult{}, domain.ErrTimeout)

	out := buf.String()
	assert.Contains(t, out, "OK tx ABC")
	assert.Contains(t, out, "REJECTED: Generic error: Auction has ended")
	assert.Contains(t, out, "TIMEOUT")
}

func TestConsole_PrintCountdown(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, "uhuahua")

	n.PrintCountdown("DOGE", domain.CountdownState{Hours: 0, Minutes: 59, Seconds: 59, TotalSeconds: 3599, PercentageLeft: 4.2, Urgent: true})
	n.PrintCountdown("DOGE", domain.CountdownState{Expired: true})

	out := buf.String()
	assert.Contains(t, out, "00:59:59")
	assert.Contains(t, out, "ending soon")
	assert.Contains(t, out, "auction ended")
}

func TestConsole_PrintSubmissionsAndNavigate(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, "uhuahua")

	n.PrintSubmissions(nil)
	assert.Contains(t, buf.String(), "No submissions recorded")

	buf.Reset()
	n.PrintSubmissions([]domain.Submission{{
		ID:        "s1",
		Intent:    domain.TxIntent{Kind: domain.IntentPlaceBid, StockID: 2, Shares: 3, Funds: 3_703_701},
		Status:    domain.SubmissionConfirmed,
		TxHash:    "ABCDEF",
		CreatedAt: time.Now(),
	}})
	n.Navigate("/my-bids")

	out := buf.String()
	assert.Contains(t, out, "place_bid")
	assert.Contains(t, out, "3.703701 HUAHUA")
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "→ /my-bids")
}
