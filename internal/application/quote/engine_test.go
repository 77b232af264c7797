package quote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/influstock/internal/adapters/ledger/ledgertest"
	"github.com/alejandrodnm/influstock/internal/application/quote"
	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/domain"
)

const (
	auctionStock = uint64(2)
	tradingStock = uint64(1)
	upcomingID   = uint64(3)
	me           = "chihuahua1me"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newFake() *ledgertest.Fake {
	end := fixedNow.Add(6 * time.Hour)
	past := fixedNow.Add(-48 * time.Hour)
	return &ledgertest.Fake{
		Stocks: []domain.Stock{
			{ID: tradingStock, Ticker: "WOOF", AuctionEnd: &past},
			{ID: auctionStock, Ticker: "DOGE", AuctionEnd: &end, ActiveAuction: true},
			{ID: upcomingID, Ticker: "HUAHUA"},
		},
		Holdings: []domain.Holding{
			{ID: 1, StockID: tradingStock, Owner: me, Shares: 150},
			{ID: 2, StockID: tradingStock, Owner: me, Shares: 50},
			{ID: 3, StockID: tradingStock, Owner: "someone", Shares: 10_000},
		},
		BuyVolume:  map[uint64]uint64{tradingStock: 1_000},
		SellVolume: map[uint64]uint64{tradingStock: 300},
		MinBid:     map[uint64]domain.Micro{auctionStock: 1_000_001},
		BuyPrices:  map[uint64]domain.Micro{tradingStock: 2_000_000},
		SellPrices: map[uint64]domain.Micro{tradingStock: 1_500_000},
	}
}

func newEngine(f *ledgertest.Fake) *quote.Engine {
	return quote.NewEngine(f, quote.Options{Now: func() time.Time { return fixedNow }})
}

func TestMinimumBidPrice_Success(t *testing.T) {
	f := newFake()
	q, err := newEngine(f).MinimumBidPrice(context.Background(), auctionStock, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteMinimumBid, q.Kind)
	assert.Equal(t, auctionStock, q.StockID)
	assert.Equal(t, uint64(5), q.Shares)
	assert.Equal(t, domain.Micro(1_000_001), q.Amount)
	assert.Equal(t, fixedNow, q.QuotedAt)
}

func TestMinimumBidPrice_InvalidSharesNeverReads(t *testing.T) {
	for _, shares := range []uint64{0, domain.TotalSupply + 1} {
		f := newFake()
		_, err := newEngine(f).MinimumBidPrice(context.Background(), auctionStock, shares)
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.Zero(t, f.TotalCalls())
	}
}

func TestMinimumBidPrice_RequiresAuction(t *testing.T) {
	for _, id := range []uint64{tradingStock, upcomingID} {
		f := newFake()
		_, err := newEngine(f).MinimumBidPrice(context.Background(), id, 1)
		assert.ErrorIs(t, err, domain.ErrQuoteFailed)
		assert.Zero(t, f.Calls("GetMinimumBidPrice"))
	}
}

func TestMinimumBidPrice_EngineMessagePreserved(t *testing.T) {
	f := newFake()
	f.Errs = map[string]error{"GetMinimumBidPrice": &domain.EngineError{Status: 500, Message: "Generic error: Auction has ended"}}

	_, err := newEngine(f).MinimumBidPrice(context.Background(), auctionStock, 1)
	var qe *domain.QuoteError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "Generic error: Auction has ended", qe.Message)
	assert.ErrorIs(t, err, domain.ErrQuoteFailed)
}

func TestTradableBound_Sell(t *testing.T) {
	f := newFake()
	bound, err := newEngine(f).TradableBound(context.Background(), session.Connect(me), tradingStock, domain.SideSell)
	require.NoError(t, err)
	// min(1000 de volumen de compra, 200 propias)
	assert.Equal(t, uint64(200), bound)
}

func TestTradableBound_Buy(t *testing.T) {
	f := newFake()
	bound, err := newEngine(f).TradableBound(context.Background(), session.Disconnected(), tradingStock, domain.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), bound)
}

func TestTradableBound_SellNeedsSession(t *testing.T) {
	f := newFake()
	_, err := newEngine(f).TradableBound(context.Background(), session.Disconnected(), tradingStock, domain.SideSell)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
	assert.Zero(t, f.TotalCalls())
}

func TestExecutionPrice_QuickSellBeyondBound(t *testing.T) {
	f := newFake()
	_, err := newEngine(f).ExecutionPrice(context.Background(), session.Connect(me), tradingStock, 500, domain.SideSell)
	assert.ErrorIs(t, err, domain.ErrExceedsBound)
	assert.Zero(t, f.Calls("GetSellPrice"), "price is never asked beyond the bound")
}

func TestExecutionPrice_QuickSellWithinBound(t *testing.T) {
	f := newFake()
	q, err := newEngine(f).ExecutionPrice(context.Background(), session.Connect(me), tradingStock, 200, domain.SideSell)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteExecution, q.Kind)
	assert.Equal(t, domain.SideSell, q.Side)
	assert.Equal(t, domain.Micro(300_000_000), q.Amount)
	assert.Equal(t, domain.Micro(1_500_000), q.PerShare)
	assert.Equal(t, uint64(200), q.Bound)
}

func TestExecutionPrice_NoLiquidity(t *testing.T) {
	f := newFake()
	f.BuyVolume[tradingStock] = 0

	_, err := newEngine(f).ExecutionPrice(context.Background(), session.Connect(me), tradingStock, 1, domain.SideSell)
	assert.ErrorIs(t, err, domain.ErrNoLiquidity)
	assert.Zero(t, f.Calls("GetSellPrice"))
}

func TestExecutionPrice_QuickBuy(t *testing.T) {
	f := newFake()
	q, err := newEngine(f).ExecutionPrice(context.Background(), session.Disconnected(), tradingStock, 300, domain.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, domain.Micro(600_000_000), q.Amount)
	assert.Equal(t, 1, f.Calls("GetBuyPrice"))
}

func TestExecutionPrice_Timeout(t *testing.T) {
	f := newFake()
	f.Block = make(chan struct{})
	defer close(f.Block)

	e := quote.NewEngine(f, quote.Options{Timeout: 20 * time.Millisecond})
	start := time.Now()
	_, err := e.ExecutionPrice(context.Background(), session.Connect(me), tradingStock, 10, domain.SideSell)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestMinimumBidPrice_Timeout(t *testing.T) {
	f := newFake()
	f.Block = make(chan struct{})
	defer close(f.Block)

	e := quote.NewEngine(f, quote.Options{Timeout: 20 * time.Millisecond})
	_, err := e.MinimumBidPrice(context.Background(), auctionStock, 1)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestLowestPrice_ZeroWithoutOffers(t *testing.T) {
	f := newFake()
	e := newEngine(f)
	assert.Equal(t, domain.Micro(2_000_000), e.LowestPrice(context.Background(), tradingStock))
	assert.Zero(t, e.LowestPrice(context.Background(), auctionStock))

	price, err := e.LowestBid(context.Background(), auctionStock)
	require.NoError(t, err)
	assert.Equal(t, domain.Micro(1_000_001), price)
}
