// Package quote obtains advisory prices from the settlement engine before an
// intent is composed. Quotes never mutate local state; the engine recomputes
// the real price when the transaction executes.
package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/domain"
	"github.com/alejandrodnm/influstock/internal/ports"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxShares = domain.TotalSupply
)

// Options configura el Engine. Los ceros toman los valores por defecto.
type Options struct {
	Timeout   time.Duration
	MaxShares uint64
	Now       func() time.Time
}

// Engine cotiza bids mínimos y precios de ejecución contra el ledger.
type Engine struct {
	ledger    ports.Ledger
	timeout   time.Duration
	maxShares uint64
	now       func() time.Time
}

func NewEngine(ledger ports.Ledger, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxShares == 0 {
		opts.MaxShares = DefaultMaxShares
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		ledger:    ledger,
		timeout:   opts.Timeout,
		maxShares: opts.MaxShares,
		now:       opts.Now,
	}
}

// Now is the engine's clock; quotes are stamped with it.
func (e *Engine) Now() time.Time { return e.now() }

// MaxShares is the largest amount accepted in a single quote.
func (e *Engine) MaxShares() uint64 { return e.maxShares }

// ValidateShares checks 1 <= shares <= MaxShares without touching the network.
func (e *Engine) ValidateShares(shares uint64) error {
	if shares == 0 || shares > e.maxShares {
		return fmt.Errorf("%w: shares must be between 1 and %d, got %d", domain.ErrInvalidAmount, e.maxShares, shares)
	}
	return nil
}

// MinimumBidPrice pide al engine el precio por share necesario para ganar
// shares en la subasta del stock.
func (e *Engine) MinimumBidPrice(ctx context.Context, stockID, shares uint64) (domain.Quote, error) {
	if err := e.ValidateShares(shares); err != nil {
		return domain.Quote{}, fmt.Errorf("quote.MinimumBidPrice: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stock, err := e.ledger.GetStockByID(ctx, stockID)
	if err != nil {
		return domain.Quote{}, e.fail(ctx, "quote.MinimumBidPrice", stockID, err)
	}
	if state := stock.Lifecycle(); state != domain.LifecycleInAuction {
		return domain.Quote{}, fmt.Errorf("quote.MinimumBidPrice: %w", &domain.QuoteError{
			StockID: stockID,
			Message: fmt.Sprintf("stock %s is %s, not in auction", stock.Ticker, state),
		})
	}

	price, err := e.ledger.GetMinimumBidPrice(ctx, stockID, shares)
	if err != nil {
		return domain.Quote{}, e.fail(ctx, "quote.MinimumBidPrice", stockID, err)
	}

	slog.Debug("minimum bid quoted", "stock_id", stockID, "shares", shares, "price", price)
	return domain.Quote{
		Kind:     domain.QuoteMinimumBid,
		StockID:  stockID,
		Shares:   shares,
		Amount:   price,
		PerShare: price,
		QuotedAt: e.now(),
	}, nil
}

// TradableBound es el máximo de shares ejecutables ahora mismo.
// Venta: min(volumen de compra abierto, shares propias). Compra: volumen de venta abierto.
func (e *Engine) TradableBound(ctx context.Context, sess session.Session, stockID uint64, side domain.OrderSide) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.tradableBound(ctx, sess, stockID, side)
}

func (e *Engine) tradableBound(ctx context.Context, sess session.Session, stockID uint64, side domain.OrderSide) (uint64, error) {
	switch side {
	case domain.SideBuy:
		vol, err := e.ledger.GetTotalSellVolume(ctx, stockID)
		if err != nil {
			return 0, e.fail(ctx, "quote.TradableBound", stockID, err)
		}
		return vol, nil

	case domain.SideSell:
		account, err := sess.RequireAccount()
		if err != nil {
			return 0, fmt.Errorf("quote.TradableBound: %w", err)
		}
		vol, err := e.ledger.GetTotalBuyVolume(ctx, stockID)
		if err != nil {
			return 0, e.fail(ctx, "quote.TradableBound", stockID, err)
		}
		holdings, err := e.ledger.GetSharesByOwner(ctx, account)
		if err != nil {
			return 0, e.fail(ctx, "quote.TradableBound", stockID, err)
		}
		return min(vol, domain.SharesOf(holdings, stockID)), nil

	default:
		return 0, fmt.Errorf("quote.TradableBound: unknown side %q", side)
	}
}

// ExecutionPrice cotiza una compra o venta rápida. Calcula el bound primero:
// bound 0 → ErrNoLiquidity sin pedir precio; shares > bound → ErrExceedsBound.
func (e *Engine) ExecutionPrice(ctx context.Context, sess session.Session, stockID, shares uint64, side domain.OrderSide) (domain.Quote, error) {
	if err := e.ValidateShares(shares); err != nil {
		return domain.Quote{}, fmt.Errorf("quote.ExecutionPrice: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	bound, err := e.tradableBound(ctx, sess, stockID, side)
	if err != nil {
		return domain.Quote{}, err
	}
	if bound == 0 {
		return domain.Quote{}, fmt.Errorf("quote.ExecutionPrice: stock %d %s: %w", stockID, side, domain.ErrNoLiquidity)
	}
	if shares > bound {
		return domain.Quote{}, fmt.Errorf("quote.ExecutionPrice: %w: %d shares requested, %d tradable", domain.ErrExceedsBound, shares, bound)
	}

	var price domain.MarketPrice
	if side == domain.SideSell {
		price, err = e.ledger.GetSellPrice(ctx, stockID, shares)
	} else {
		price, err = e.ledger.GetBuyPrice(ctx, stockID, shares)
	}
	if err != nil {
		return domain.Quote{}, e.fail(ctx, "quote.ExecutionPrice", stockID, err)
	}

	perShare := price.PerShare
	if perShare == 0 {
		perShare = price.Total.PerShare(shares)
	}

	slog.Debug("execution price quoted", "stock_id", stockID, "side", side, "shares", shares, "total", price.Total, "bound", bound)
	return domain.Quote{
		Kind:     domain.QuoteExecution,
		StockID:  stockID,
		Shares:   shares,
		Side:     side,
		Amount:   price.Total,
		PerShare: perShare,
		Bound:    bound,
		QuotedAt: e.now(),
	}, nil
}

// LowestBid es el precio mínimo para 1 share de un stock en subasta.
func (e *Engine) LowestBid(ctx context.Context, stockID uint64) (domain.Micro, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	price, err := e.ledger.GetMinimumBidPrice(ctx, stockID, 1)
	if err != nil {
		return 0, e.fail(ctx, "quote.LowestBid", stockID, err)
	}
	return price, nil
}

// LowestPrice es el precio de compra de 1 share, 0 si no hay oferta.
func (e *Engine) LowestPrice(ctx context.Context, stockID uint64) domain.Micro {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	price, err := e.ledger.GetBuyPrice(ctx, stockID, 1)
	if err != nil {
		slog.Debug("no buy price for stock", "stock_id", stockID, "err", err)
		return 0
	}
	return price.Total
}

// fail traduce un error de lectura: deadline → ErrTimeout, sesión → tal cual,
// resto → QuoteError con el mensaje del engine.
func (e *Engine) fail(ctx context.Context, op string, stockID uint64, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: stock %d: %w", op, stockID, domain.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, &domain.QuoteError{StockID: stockID, Message: domain.EngineMessage(err)})
}
