package domain

import "time"

// Holding is a block of shares of one stock owned by one account.
type Holding struct {
	ID            uint64
	StockID       uint64
	Ticker        string
	Owner         string
	Shares        uint64
	ValuePerShare Micro
}

// TotalValue is recomputed on every call from the current value per share.
func (h Holding) TotalValue() Micro {
	total, _ := h.ValuePerShare.Times(h.Shares)
	return total
}

// Sale is a completed trade between two accounts.
type Sale struct {
	ID            uint64
	StockID       uint64
	Shares        uint64
	PricePerShare Micro
	From          string
	To            string
	CreatedAt     time.Time
}

// LastSalePrice returns the per-share price of the most recent sale, 0 if none.
// Ties on timestamp resolve to the higher sale ID.
func LastSalePrice(sales []Sale) Micro {
	var last *Sale
	for i := range sales {
		s := &sales[i]
		if last == nil || s.CreatedAt.After(last.CreatedAt) ||
			(s.CreatedAt.Equal(last.CreatedAt) && s.ID > last.ID) {
			last = s
		}
	}
	if last == nil {
		return 0
	}
	return last.PricePerShare
}

// SharesOf sums the shares an account holds of a given stock.
func SharesOf(holdings []Holding, stockID uint64) uint64 {
	var n uint64
	for _, h := range holdings {
		if h.StockID == stockID {
			n += h.Shares
		}
	}
	return n
}
