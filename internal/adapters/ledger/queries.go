package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// maxPages corta la paginación si el contrato no avanza.
const maxPages = 1000

type stockIDArgs struct {
	StockID uint64 `json:"stock_id"`
}

type allStocksArgs struct {
	StartAfter            *uint64 `json:"start_after,omitempty"`
	InAuction             *bool   `json:"in_auction,omitempty"`
	InSale                *bool   `json:"in_sale,omitempty"`
	MarkedAsActiveAuction *bool   `json:"marked_as_active_auction,omitempty"`
}

type influencerArgs struct {
	Influencer string  `json:"influencer"`
	StartAfter *uint64 `json:"start_after,omitempty"`
}

type bidderArgs struct {
	Bidder string `json:"bidder"`
}

type ownerArgs struct {
	Owner string `json:"owner"`
}

type ownerSortArgs struct {
	Owner  string `json:"owner"`
	SortBy string `json:"sort_by"`
}

type minimumBidArgs struct {
	StockID         uint64 `json:"stock_id"`
	SharesRequested uint64 `json:"shares_requested"`
}

type priceArgs struct {
	StockID         uint64 `json:"stock_id"`
	RequestedShares uint64 `json:"requested_shares"`
}

// GetStockByID devuelve un stock por id.
func (c *Client) GetStockByID(ctx context.Context, stockID uint64) (domain.Stock, error) {
	var resp stockResponse
	q := map[string]any{"get_stock_by_id": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return domain.Stock{}, fmt.Errorf("ledger.GetStockByID %d: %w", stockID, err)
	}
	return toStock(resp.Stock), nil
}

// GetAllStocks pagina con start_after hasta recibir una página vacía.
// El contrato ordena por id descendente.
func (c *Client) GetAllStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error) {
	args := allStocksArgs{
		InAuction:             filter.InAuction,
		InSale:                filter.InSale,
		MarkedAsActiveAuction: filter.MarkedActiveAuction,
	}
	stocks, err := c.pageStocks(ctx, func(startAfter *uint64) any {
		a := args
		a.StartAfter = startAfter
		return map[string]any{"get_all_stocks": a}
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.GetAllStocks: %w", err)
	}
	return stocks, nil
}

// GetStocksByInfluencer devuelve los stocks creados por influencer.
func (c *Client) GetStocksByInfluencer(ctx context.Context, influencer string) ([]domain.Stock, error) {
	stocks, err := c.pageStocks(ctx, func(startAfter *uint64) any {
		return map[string]any{"get_stocks_by_influencer": influencerArgs{Influencer: influencer, StartAfter: startAfter}}
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.GetStocksByInfluencer %s: %w", influencer, err)
	}
	return stocks, nil
}

func (c *Client) pageStocks(ctx context.Context, query func(startAfter *uint64) any) ([]domain.Stock, error) {
	var (
		out        []domain.Stock
		seen       = make(map[uint64]bool)
		startAfter *uint64
	)
	for page := 0; page < maxPages; page++ {
		var resp stocksResponse
		if err := c.smartQuery(ctx, query(startAfter), &resp); err != nil {
			return nil, err
		}
		if len(resp.Stocks) == 0 {
			return out, nil
		}

		progressed := false
		lowest := uint64(resp.Stocks[0].ID)
		for _, r := range resp.Stocks {
			id := uint64(r.ID)
			if seen[id] {
				continue
			}
			seen[id] = true
			progressed = true
			out = append(out, toStock(r))
			lowest = min(lowest, id)
		}
		if !progressed || lowest == 0 {
			return out, nil
		}
		next := lowest
		startAfter = &next
		slog.Debug("stocks page", "page", page+1, "items", len(resp.Stocks), "start_after", next)
	}
	slog.Warn("stock pagination hit page cap", "pages", maxPages)
	return out, nil
}

// GetBidsByBidder devuelve todos los bids del bidder, abiertos o no.
func (c *Client) GetBidsByBidder(ctx context.Context, bidder string) ([]domain.Bid, error) {
	var resp bidsResponse
	q := map[string]any{"get_bids_by_bidder": bidderArgs{Bidder: bidder}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetBidsByBidder %s: %w", bidder, err)
	}
	return mapAll(resp.Bids, toBid), nil
}

func (c *Client) GetBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error) {
	var resp bidsResponse
	q := map[string]any{"get_bids_by_stock": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetBidsByStock %d: %w", stockID, err)
	}
	return mapAll(resp.Bids, toBid), nil
}

// GetOpenBidsByStock conserva el orden del contrato (precio ascendente).
func (c *Client) GetOpenBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error) {
	var resp bidsResponse
	q := map[string]any{"get_open_bids_by_stock": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetOpenBidsByStock %d: %w", stockID, err)
	}
	return mapAll(resp.Bids, toBid), nil
}

func (c *Client) GetMinimumBidPrice(ctx context.Context, stockID, sharesRequested uint64) (domain.Micro, error) {
	var resp minimumBidPriceResponse
	q := map[string]any{"get_minimum_bid_price": minimumBidArgs{StockID: stockID, SharesRequested: sharesRequested}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return 0, fmt.Errorf("ledger.GetMinimumBidPrice %d x%d: %w", stockID, sharesRequested, err)
	}
	return domain.Micro(resp.MinPrice), nil
}

func (c *Client) GetSharesByOwner(ctx context.Context, owner string) ([]domain.Holding, error) {
	var resp sharesResponse
	q := map[string]any{"get_shares_by_owner": ownerArgs{Owner: owner}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetSharesByOwner %s: %w", owner, err)
	}
	return mapAll(resp.Shares, toHolding), nil
}

func (c *Client) GetSharesByStock(ctx context.Context, stockID uint64) ([]domain.Holding, error) {
	var resp sharesResponse
	q := map[string]any{"get_shares_by_stock": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetSharesByStock %d: %w", stockID, err)
	}
	return mapAll(resp.Shares, toHolding), nil
}

// GetBuyPrice cotiza comprar shares contra las órdenes de venta abiertas.
func (c *Client) GetBuyPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error) {
	var resp priceResponse
	q := map[string]any{"get_buy_price": priceArgs{StockID: stockID, RequestedShares: shares}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return domain.MarketPrice{}, fmt.Errorf("ledger.GetBuyPrice %d x%d: %w", stockID, shares, err)
	}
	return toMarketPrice(resp), nil
}

// GetSellPrice cotiza vender shares contra las órdenes de compra abiertas.
func (c *Client) GetSellPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error) {
	var resp priceResponse
	q := map[string]any{"get_sell_price": priceArgs{StockID: stockID, RequestedShares: shares}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return domain.MarketPrice{}, fmt.Errorf("ledger.GetSellPrice %d x%d: %w", stockID, shares, err)
	}
	return toMarketPrice(resp), nil
}

func (c *Client) GetTotalBuyVolume(ctx context.Context, stockID uint64) (uint64, error) {
	var resp volumeResponse
	q := map[string]any{"get_total_buy_volume": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return 0, fmt.Errorf("ledger.GetTotalBuyVolume %d: %w", stockID, err)
	}
	return uint64(resp.Amount), nil
}

func (c *Client) GetTotalSellVolume(ctx context.Context, stockID uint64) (uint64, error) {
	var resp volumeResponse
	q := map[string]any{"get_total_sell_volume": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return 0, fmt.Errorf("ledger.GetTotalSellVolume %d: %w", stockID, err)
	}
	return uint64(resp.Amount), nil
}

func (c *Client) GetOpenBuyOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	var resp buyOrdersResponse
	q := map[string]any{"get_open_buy_orders_by_owner": ownerSortArgs{Owner: owner, SortBy: "created_at_desc"}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetOpenBuyOrdersByOwner %s: %w", owner, err)
	}
	return mapAll(resp.Orders, buyToOrder), nil
}

func (c *Client) GetOpenSellOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error) {
	var resp sellOrdersResponse
	q := map[string]any{"get_open_sell_orders_by_owner": ownerSortArgs{Owner: owner, SortBy: "created_at_desc"}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetOpenSellOrdersByOwner %s: %w", owner, err)
	}
	return mapAll(resp.Orders, sellToOrder), nil
}

func (c *Client) GetSalesByStock(ctx context.Context, stockID uint64) ([]domain.Sale, error) {
	var resp salesResponse
	q := map[string]any{"get_sales_by_stock": stockIDArgs{StockID: stockID}}
	if err := c.smartQuery(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("ledger.GetSalesByStock %d: %w", stockID, err)
	}
	return mapAll(resp.Sales, toSale), nil
}
