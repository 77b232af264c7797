package domain

import (
	"fmt"
	"time"
)

// QuoteKind distinguishes the two price reads.
type QuoteKind string

const (
	QuoteMinimumBid QuoteKind = "minimum_bid"
	QuoteExecution  QuoteKind = "execution"
)

// Quote is a point-in-time price read. It is advisory: the settlement engine
// recomputes the real price when the transaction lands.
type Quote struct {
	Kind     QuoteKind
	StockID  uint64
	Shares   uint64
	Side     OrderSide // execution quotes only
	Amount   Micro     // minimum price per share (bids) or total price (execution)
	PerShare Micro
	Bound    uint64 // tradable bound observed before quoting (execution quotes only)
	QuotedAt time.Time
}

// ValidFor rejects a quote that was computed for other inputs or is older than ttl.
// A zero ttl disables the age check.
func (q Quote) ValidFor(stockID, shares uint64, now time.Time, ttl time.Duration) error {
	if q.StockID != stockID || q.Shares != shares {
		return fmt.Errorf("%w: quoted %d shares of stock %d, have %d shares of stock %d",
			ErrStaleQuote, q.Shares, q.StockID, shares, stockID)
	}
	if ttl > 0 && now.Sub(q.QuotedAt) > ttl {
		return fmt.Errorf("%w: quoted %s ago", ErrStaleQuote, now.Sub(q.QuotedAt).Round(time.Second))
	}
	return nil
}

// MarketPrice is the engine's answer to a buy/sell price request.
type MarketPrice struct {
	Shares   uint64
	Total    Micro
	PerShare Micro
}
