package domain

import "time"

// BidStatus is derived from the ledger flags of a bid.
type BidStatus string

const (
	BidActive    BidStatus = "active"
	BidOutbid    BidStatus = "outbid"
	BidCompleted BidStatus = "completed"
)

// Bid is an offer for part of a stock's auctioned supply.
type Bid struct {
	ID              uint64
	StockID         uint64
	Bidder          string
	SharesRequested uint64
	RemainingShares uint64 // shares not yet outbid, always <= SharesRequested
	PricePerShare   Micro
	CreatedAt       time.Time
	Open            bool // ledger "open" flag: not fully outbid
	Active          bool // ledger "active" flag: auction still running
}

// Status derives the bid status. A bid with no remaining shares is never active.
func (b Bid) Status() BidStatus {
	if !b.Active {
		return BidCompleted
	}
	if b.Open && b.RemainingShares > 0 {
		return BidActive
	}
	return BidOutbid
}

// Total is the amount locked by the bid for its remaining shares.
func (b Bid) Total() Micro {
	total, _ := b.PricePerShare.Times(b.RemainingShares)
	return total
}
