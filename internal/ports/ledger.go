package ports

import (
	"context"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// StockReader reads stock records from the settlement engine.
type StockReader interface {
	GetStockByID(ctx context.Context, stockID uint64) (domain.Stock, error)

	// GetAllStocks pages through every stock matching the filter.
	GetAllStocks(ctx context.Context, filter domain.StockFilter) ([]domain.Stock, error)

	GetStocksByInfluencer(ctx context.Context, influencer string) ([]domain.Stock, error)
}

// BidReader reads auction bids and the minimum winning price.
type BidReader interface {
	GetBidsByBidder(ctx context.Context, bidder string) ([]domain.Bid, error)
	GetBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error)

	// GetOpenBidsByStock returns open bids ordered by price ascending, as ranked by the engine.
	GetOpenBidsByStock(ctx context.Context, stockID uint64) ([]domain.Bid, error)

	// GetMinimumBidPrice returns the per-share price needed to win sharesRequested shares.
	GetMinimumBidPrice(ctx context.Context, stockID, sharesRequested uint64) (domain.Micro, error)
}

// ShareReader reads share holdings.
type ShareReader interface {
	GetSharesByOwner(ctx context.Context, owner string) ([]domain.Holding, error)
	GetSharesByStock(ctx context.Context, stockID uint64) ([]domain.Holding, error)
}

// MarketReader reads the post-auction market.
type MarketReader interface {
	// GetBuyPrice prices buying shares against open sell orders.
	GetBuyPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error)
	// GetSellPrice prices selling shares against open buy orders.
	GetSellPrice(ctx context.Context, stockID, shares uint64) (domain.MarketPrice, error)

	// GetTotalBuyVolume is the number of shares open buy orders still want.
	GetTotalBuyVolume(ctx context.Context, stockID uint64) (uint64, error)
	// GetTotalSellVolume is the number of shares open sell orders still offer.
	GetTotalSellVolume(ctx context.Context, stockID uint64) (uint64, error)

	GetOpenBuyOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error)
	GetOpenSellOrdersByOwner(ctx context.Context, owner string) ([]domain.Order, error)

	GetSalesByStock(ctx context.Context, stockID uint64) ([]domain.Sale, error)
}

// BalanceReader reads the base currency balance of an account.
type BalanceReader interface {
	GetBalance(ctx context.Context, address string) (domain.Micro, error)
}

// Ledger is the full read side of the settlement engine.
type Ledger interface {
	StockReader
	BidReader
	ShareReader
	MarketReader
}
