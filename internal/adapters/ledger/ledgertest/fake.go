// Package ledgertest provides an in-memory ledger for tests of code that
// consumes ports.Ledger.
package ledgertest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Fake is an in-memory ports.Ledger and ports.BalanceReader. Fields may be set
// directly before use; use Update to change them while calls are in flight.
type Fake struct {
	mu sync.Mutex

	Stocks     []domain.Stock
	Bids       []domain.Bid
	Holdings   []domain.Holding
	BuyOrders  map[string][]domain.Order // owner → open buy orders
	SellOrders map[string][]domain.Order // owner → open sell orders
	Sales      []domain.Sale

	BuyVolume  map[uint64]uint64
	SellVolume map[uint64]uint64

	// Per-share prices; totals are price × shares.
	MinBid     map[uint64]domain.Micro
	BuyPrices  map[uint64]domain.Micro
	SellPrices map[uint64]domain.Micro

	Balances map[string]domain.Micro

	// Errs fuerza un error por nombre de método.
	Errs map[string]error
	// Block, si no es nil, hace que cada llamada espere a que se cierre o a ctx.
	Block chan struct{}

	calls map[string]int
}

// Update runs fn while holding the fake's lock.
func (f *Fake) Update(fn func(f *Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *Fake) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
	block := f.Block
	err := f.Errs[method]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *Fake) GetStockByID(ctx context.Context, stockID uint64) (domain.Stock, error) {
	if err := f.enter(ctx, "GetStockByID"); err != nil {
		return domain.Stock{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.Stocks {
		if s.ID == stockID {
			return s, nil
		}
	}
	return domain.Stock{}, &domain.EngineError{Status: 500, Message: fmt.Sprintf("Stock with id %d not found", stockID)}
}

func (f *Fake) GetAllStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	if err := f.enter(ctx, "GetAllStocks"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Stock
	for _, s := range f.Stocks {
		state := s.Lifecycle()
		if filter.InAuction != nil && (state == domain.LifecycleInAuction) != *filter.InAuction {
			continue
		}
		if filter.InSale != nil && (state == domain.LifecycleTrading) != *filter.InSale {
			continue
		}
		if filter.MarkedActiveAuction != nil && s.ActiveAuction != *filter.MarkedActiveAuction {
			continue
		}
		out = append(out, s)
	}
	return byIDDesc(out), nil
}

func (f *Fake) GetStocksByInfluencer(ctx context.Context, influencer string) ([]domain.Stock, error) {
	if err := f.enter(ctx, "GetStocksByInfluencer"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Stock
	for _, s := range f.Stocks {
		if s.Influencer == influencer {
			out = append(out, s)
		}
	}
	return byIDDesc(out), nil
}

func (f *Fake) GetBidsByBidder(ctx context.Context, bidder string) ([]domain.Bid, error) {
	if err := f.enter(ctx, "GetBidsByBidder"); err != nil {
		return nil, err
	}
	return f.filterBids(func(b domain.Bid) bool { return b.Bidder == bidder }), nil
}

func (f *Fake) GetBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error) {
	if err := f.enter(ctx, "GetBidsByStock"); err != nil {
		return nil, err
	}
	return f.filterBids(func(b domain.Bid) bool { return b.StockID == stockID }), nil
}

func (f *Fake) GetOpenBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error) {
	if err := f.enter(ctx, "GetOpenBidsByStock"); err != nil {
		return nil, err
	}
	bids := f.filterBids(func(b domain.Bid) bool { return b.StockID == stockID && b.Open && b.Active })
	slices.SortStableFunc(bids, func(a, b domain.Bid) int { return cmp.Compare(a.PricePerShare, b.PricePerShare) })
	return bids, nil
}

func (f *Fake) GetMinimumBidPrice(ctx context.Context, stockID, sharesRequested uint64) (domain.Micro, error) {
	if err := f.enter(ctx, "GetMinimumBidPrice"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.MinBid[stockID]
	if !ok {
		return 0, &domain.EngineError{Status: 500, Message: fmt.Sprintf("Stock %d is not in auction", stockID)}
	}
	return price, nil
}

func (f *Fake) GetSharesByOwner(ctx context.Context, owner string) ([]domain.Holding, error) {
	if err := f.enter(ctx, "GetSharesByOwner"); err != nil {
		return nil, err
	}
	return f.filterHoldings(func(h domain.Holding) bool { return h.Owner == owner }), nil
}

func (f *Fake) GetSharesByStock(ctx context.Context, stockID uint64) ([]domain.Holding, error) {
	if err := f.enter(ctx, "GetSharesByStock"); err != nil {
		return nil, err
	}
	return f.filterHoldings(func(h domain.Holding) bool { return h.StockID == stockID }), nil
}

func (f *Fake) GetBuyPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error) {
	if err := f.enter(ctx, "GetBuyPrice"); err != nil {
		return domain.MarketPrice{}, err
	}
	return f.price(false, stockID, shares, "Not enough sell orders")
}

func (f *Fake) GetSellPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error) {
	if err := f.enter(ctx, "GetSellPrice"); err != nil {
		return domain.MarketPrice{}, err
	}
	return f.price(true, stockID, shares, "Not enough buy orders")
}

func (f *Fake) GetTotalBuyVolume(ctx context.Context, stockID uint64) (uint64, error) {
	if err := f.enter(ctx, "GetTotalBuyVolume"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BuyVolume[stockID], nil
}

func (f *Fake) GetTotalSellVolume(ctx context.Context, stockID uint64) (uint64, error) {
	if err := f.enter(ctx, "GetTotalSellVolume"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SellVolume[stockID], nil
}

func (f *Fake) GetOpenBuyOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	if err := f.enter(ctx, "GetOpenBuyOrdersByOwner"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.BuyOrders[owner]), nil
}

func (f *Fake) GetOpenSellOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	if err := f.enter(ctx, "GetOpenSellOrdersByOwner"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.SellOrders[owner]), nil
}

func (f *Fake) GetSalesByStock(ctx context.Context, stockID uint64) ([]domain.Sale, error) {
	if err := f.enter(ctx, "GetSalesByStock"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Sale
	for _, s := range f.Sales {
		if s.StockID == stockID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *Fake) GetBalance(ctx context.Context, address string) (domain.Micro, error) {
	if err := f.enter(ctx, "GetBalance"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Balances[address], nil
}

func (f *Fake) filterBids(keep func(domain.Bid) bool) []domain.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Bid
	for _, b := range f.Bids {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (f *Fake) filterHoldings(keep func(domain.Holding) bool) []domain.Holding {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Holding
	for _, h := range f.Holdings {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func (f *Fake) price(sell bool, stockID, shares uint64, missing string) (domain.MarketPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prices := f.BuyPrices
	if sell {
		prices = f.SellPrices
	}
	per, ok := prices[stockID]
	if !ok {
		return domain.MarketPrice{}, &domain.EngineError{Status: 500, Message: missing}
	}
	total, _ := per.Times(shares)
	return domain.MarketPrice{Shares: shares, Total: total, PerShare: per}, nil
}

func byIDDesc(stocks []domain.Stock) []domain.Stock {
	slices.SortFunc(stocks, func(a, b domain.Stock) int { return cmp.Compare(b.ID, a.ID) })
	return stocks
}
