package domain

import "time"

// TotalSupply is the number of shares minted for every stock at issuance.
const TotalSupply uint64 = 1_000_000

// LifecycleState is the derived phase of a stock.
type LifecycleState string

const (
	LifecycleUpcoming  LifecycleState = "upcoming"
	LifecycleInAuction LifecycleState = "in_auction"
	LifecycleTrading   LifecycleState = "trading"
)

// Label returns a short human label for tables.
func (s LifecycleState) Label() string {
	switch s {
	case LifecycleInAuction:
		return "IN AUCTION"
	case LifecycleTrading:
		return "TRADING"
	default:
		return "UPCOMING"
	}
}

// Stock is the normalized view of a ledger stock record.
// AuctionStart and AuctionEnd are nil when the ledger has no usable value.
type Stock struct {
	ID            uint64
	Ticker        string
	Influencer    string
	TotalShares   uint64
	AuctionStart  *time.Time
	AuctionEnd    *time.Time
	ActiveAuction bool
	CreatedAt     time.Time
}

// Classify maps the two ledger facts that matter to a lifecycle state.
// It is total: a missing end timestamp is always Upcoming, whatever the flag says.
func Classify(auctionEnd *time.Time, activeAuction bool) LifecycleState {
	if auctionEnd == nil {
		return LifecycleUpcoming
	}
	if activeAuction {
		return LifecycleInAuction
	}
	return LifecycleTrading
}

// Lifecycle derives the state on every call; it is never stored.
func (s Stock) Lifecycle() LifecycleState {
	return Classify(s.AuctionEnd, s.ActiveAuction)
}

// StockFilter mirrors the optional filters of the get_all_stocks query.
type StockFilter struct {
	InAuction           *bool
	InSale              *bool
	MarkedActiveAuction *bool
}

// StockSummary is a stock plus the display fields shown next to it.
type StockSummary struct {
	Stock
	State             LifecycleState
	TotalShareholders int
	TotalBids         int
	LowestBid         Micro // min price for 1 share while in auction
	LowestPrice       Micro // buy price for 1 share while trading
}
