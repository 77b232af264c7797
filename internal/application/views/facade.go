// Package views normalizes raw ledger reads into the lists the client shows.
// Nothing here is cached: every call re-reads the ledger.
package views

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/influstock/internal/application/quote"
	"github.com/alejandrodnm/influstock/internal/domain"
	"github.com/alejandrodnm/influstock/internal/ports"
)

// enrichConcurrency limita las lecturas paralelas por vista.
const enrichConcurrency = 8

// Facade lee el ledger y arma vistas normalizadas.
type Facade struct {
	ledger ports.Ledger
	quotes *quote.Engine
}

func NewFacade(ledger ports.Ledger, quotes *quote.Engine) *Facade {
	return &Facade{ledger: ledger, quotes: quotes}
}

// Stock devuelve el resumen de un solo stock.
func (f *Facade) Stock(ctx context.Context, stockID uint64) (domain.StockSummary, error) {
	stock, err := f.ledger.GetStockByID(ctx, stockID)
	if err != nil {
		return domain.StockSummary{}, fmt.Errorf("views.Stock: %w", err)
	}
	return f.summarize(ctx, []domain.Stock{stock})[0], nil
}

// StocksByInfluencer lista los stocks emitidos por influencer.
func (f *Facade) StocksByInfluencer(ctx context.Context, influencer string) ([]domain.StockSummary, error) {
	stocks, err := f.ledger.GetStocksByInfluencer(ctx, influencer)
	if err != nil {
		return nil, fmt.Errorf("views.StocksByInfluencer: %w", err)
	}
	return f.summarize(ctx, stocks), nil
}

// StocksInAuction lista los stocks marcados con subasta activa. El filtro del
// contrato usa el flag; el estado final lo decide domain.Classify.
func (f *Facade) StocksInAuction(ctx context.Context) ([]domain.StockSummary, error) {
	active := true
	stocks, err := f.ledger.GetAllStocks(ctx, domain.StockFilter{MarkedActiveAuction: &active})
	if err != nil {
		return nil, fmt.Errorf("views.StocksInAuction: %w", err)
	}
	return f.summarize(ctx, byState(stocks, domain.LifecycleInAuction)), nil
}

// StocksInSale lista los stocks cuya subasta terminó y ya cotizan.
func (f *Facade) StocksInSale(ctx context.Context) ([]domain.StockSummary, error) {
	active := false
	stocks, err := f.ledger.GetAllStocks(ctx, domain.StockFilter{MarkedActiveAuction: &active})
	if err != nil {
		return nil, fmt.Errorf("views.StocksInSale: %w", err)
	}
	return f.summarize(ctx, byState(stocks, domain.LifecycleTrading)), nil
}

// BidsByBidder devuelve los bids del bidder, más nuevos primero.
func (f *Facade) BidsByBidder(ctx context.Context, bidder string) ([]domain.Bid, error) {
	bids, err := f.ledger.GetBidsByBidder(ctx, bidder)
	if err != nil {
		return nil, fmt.Errorf("views.BidsByBidder: %w", err)
	}
	slices.SortStableFunc(bids, func(a, b domain.Bid) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return bids, nil
}

// OpenBidsByStock conserva el ranking del engine (precio ascendente).
func (f *Facade) OpenBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error) {
	bids, err := f.ledger.GetOpenBidsByStock(ctx, stockID)
	if err != nil {
		return nil, fmt.Errorf("views.OpenBidsByStock: %w", err)
	}
	return bids, nil
}

// SharesByOwner devuelve las tenencias con ticker y valor (precio de la
// última venta del stock, 0 si no hubo ventas).
func (f *Facade) SharesByOwner(ctx context.Context, owner string) ([]domain.Holding, error) {
	holdings, err := f.ledger.GetSharesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("views.SharesByOwner: %w", err)
	}

	ids := stockIDs(holdings, func(h domain.Holding) uint64 { return h.StockID })
	tickers, err := f.tickers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("views.SharesByOwner: %w", err)
	}

	values := make(map[uint64]domain.Micro, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			sales, err := f.ledger.GetSalesByStock(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			values[id] = domain.LastSalePrice(sales)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("views.SharesByOwner: %w", err)
	}

	for i := range holdings {
		holdings[i].Ticker = tickers[holdings[i].StockID]
		holdings[i].ValuePerShare = values[holdings[i].StockID]
	}
	return holdings, nil
}

// OrdersByOwner mezcla órdenes abiertas de compra y venta, más nuevas primero.
func (f *Facade) OrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	var buys, sells []domain.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		buys, err = f.ledger.GetOpenBuyOrdersByOwner(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		sells, err = f.ledger.GetOpenSellOrdersByOwner(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("views.OrdersByOwner: %w", err)
	}

	orders := append(buys, sells...)
	tickers, err := f.tickers(ctx, stockIDs(orders, func(o domain.Order) uint64 { return o.StockID }))
	if err != nil {
		return nil, fmt.Errorf("views.OrdersByOwner: %w", err)
	}
	for i := range orders {
		orders[i].Ticker = tickers[orders[i].StockID]
	}
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return orders, nil
}

// summarize agrega a cada stock su estado, conteos y precio de referencia.
// Las lecturas por stock corren en paralelo. Si fallan las de un stock, ese
// stock queda con conteos en cero y el resto de la lista no se pierde.
func (f *Facade) summarize(ctx context.Context, stocks []domain.Stock) []domain.StockSummary {
	out := make([]domain.StockSummary, len(stocks))
	var g errgroup.Group
	g.SetLimit(enrichConcurrency)

	for i, s := range stocks {
		out[i] = domain.StockSummary{Stock: s, State: s.Lifecycle()}
		g.Go(func() error {
			sum := &out[i]
			if holders, err := f.ledger.GetSharesByStock(ctx, s.ID); err != nil {
				slog.Warn("shareholders unavailable", "stock_id", s.ID, "err", err)
			} else {
				sum.TotalShareholders = countOwners(holders)
			}
			if bids, err := f.ledger.GetBidsByStock(ctx, s.ID); err != nil {
				slog.Warn("bids unavailable", "stock_id", s.ID, "err", err)
			} else {
				sum.TotalBids = len(bids)
			}

			switch sum.State {
			case domain.LifecycleInAuction:
				price, err := f.quotes.LowestBid(ctx, s.ID)
				if err != nil {
					slog.Warn("lowest bid unavailable", "stock_id", s.ID, "err", err)
					break
				}
				sum.LowestBid = price
			case domain.LifecycleTrading:
				sum.LowestPrice = f.quotes.LowestPrice(ctx, s.ID)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// tickers resuelve el ticker de cada stock id en paralelo.
func (f *Facade) tickers(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			stock, err := f.ledger.GetStockByID(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = stock.Ticker
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func byState(stocks []domain.Stock, state domain.LifecycleState) []domain.Stock {
	out := stocks[:0:0]
	for _, s := range stocks {
		if s.Lifecycle() == state {
			out = append(out, s)
		}
	}
	return out
}

func countOwners(holdings []domain.Holding) int {
	owners := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		if h.Shares > 0 {
			owners[h.Owner] = struct{}{}
		}
	}
	return len(owners)
}

func stockIDs[T any](items []T, id func(T) uint64) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64
	for _, it := range items {
		if v := id(it); !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
