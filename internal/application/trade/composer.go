// Package trade compone intents firmables a partir de cotizaciones y los envía
// al settlement engine. Cada envío es una sola transacción, sin reintentos.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/alejandrodnm/influstock/internal/application/quote"
	"github.com/alejandrodnm/influstock/internal/application/session"
	"github.com/alejandrodnm/influstock/internal/domain"
	"github.com/alejandrodnm/influstock/internal/ports"
)

const (
	DefaultSubmitTimeout = 60 * time.Second
	DefaultQuoteTTL      = 30 * time.Second
	DefaultMaxSlippage   = 50

	minTickerLen = 2
	maxTickerLen = 5
)

// Reconciler is the part of the session reconciler the composer needs.
type Reconciler interface {
	Session() session.Session
	Reconcile(ctx context.Context) domain.Snapshot
}

// Deps son los colaboradores del Composer. Journal, Navigator y Balances son opcionales.
type Deps struct {
	Quotes      *quote.Engine
	Broadcaster ports.TxBroadcaster
	Reconciler  Reconciler
	Shares      ports.ShareReader
	Journal     ports.Journal
	Navigator   ports.Navigator
	Balances    ports.BalanceReader
}

// Options configura timeouts y límites. Los ceros toman los valores por defecto;
// MaxSlippage nil toma DefaultMaxSlippage y un 0 explícito prohíbe el slippage.
type Options struct {
	SubmitTimeout time.Duration
	QuoteTTL      time.Duration
	MaxSlippage   *uint64
	Now           func() time.Time
}

// Composer construye intents, los envía de uno en uno y dispara la
// reconciliación tras cada envío confirmado.
type Composer struct {
	quotes      *quote.Engine
	broadcaster ports.TxBroadcaster
	reconciler  Reconciler
	shares      ports.ShareReader
	journal     ports.Journal
	navigator   ports.Navigator
	balances    ports.BalanceReader

	submitTimeout time.Duration
	quoteTTL      time.Duration
	maxSlippage   uint64
	now           func() time.Time
}

func NewComposer(deps Deps, opts Options) *Composer {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.QuoteTTL <= 0 {
		opts.QuoteTTL = DefaultQuoteTTL
	}
	maxSlippage := uint64(DefaultMaxSlippage)
	if opts.MaxSlippage != nil {
		maxSlippage = *opts.MaxSlippage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{
		quotes:        deps.Quotes,
		broadcaster:   deps.Broadcaster,
		reconciler:    deps.Reconciler,
		shares:        deps.Shares,
		journal:       deps.Journal,
		navigator:     deps.Navigator,
		balances:      deps.Balances,
		submitTimeout: opts.SubmitTimeout,
		quoteTTL:      opts.QuoteTTL,
		maxSlippage:   maxSlippage,
		now:           opts.Now,
	}
}

// MaxSlippage is the largest slippage percentage SubmitTrade accepts.
func (c *Composer) MaxSlippage() uint64 { return c.maxSlippage }

// NewFlow abre un flujo interactivo sobre un stock, empezando en SelectingAmount.
func (c *Composer) NewFlow(kind Kind, stockID uint64) *Flow {
	return &Flow{
		c:       c,
		kind:    kind,
		stockID: stockID,
		payload: SelectingAmount{},
	}
}

// CreateStock registra un stock nuevo con el caller como influencer.
func (c *Composer) CreateStock(ctx context.Context, ticker string) (domain.TxResult, error) {
	sess := c.session()
	if _, err := sess.RequireAccount(); err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateStock: %w", err)
	}
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateStock: %w", err)
	}
	return c.submit(ctx, sess, domain.TxIntent{Kind: domain.IntentCreateStock, Ticker: ticker})
}

// StartAuction abre la subasta de 24h de un stock del caller.
func (c *Composer) StartAuction(ctx context.Context, stockID uint64) (domain.TxResult, error) {
	return c.direct(ctx, "trade.StartAuction", domain.TxIntent{Kind: domain.IntentStartAuction, StockID: stockID})
}

// EndAuction cierra la subasta antes de tiempo y reparte las shares ganadoras.
func (c *Composer) EndAuction(ctx context.Context, stockID uint64) (domain.TxResult, error) {
	return c.direct(ctx, "trade.EndAuction", domain.TxIntent{Kind: domain.IntentEndAuction, StockID: stockID})
}

// CreateBuyOrder deja una orden límite de compra; adjunta price × shares.
func (c *Composer) CreateBuyOrder(ctx context.Context, stockID, shares uint64, price domain.Micro) (domain.TxResult, error) {
	sess := c.session()
	account, err := sess.RequireAccount()
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateBuyOrder: %w", err)
	}
	if err := c.validateOrder(shares, price); err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateBuyOrder: %w", err)
	}
	funds, err := domain.TotalFor(price, shares)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateBuyOrder: %w", err)
	}
	if err := c.checkFunds(ctx, account, funds); err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateBuyOrder: %w", err)
	}
	return c.submit(ctx, sess, domain.TxIntent{
		Kind:          domain.IntentCreateBuyOrder,
		StockID:       stockID,
		Shares:        shares,
		PricePerShare: price,
		Funds:         funds,
	})
}

// CreateSellOrder deja una orden límite de venta. Las shares no pueden
// superar las que el caller tiene del stock.
func (c *Composer) CreateSellOrder(ctx context.Context, stockID, shares uint64, price domain.Micro) (domain.TxResult, error) {
	sess := c.session()
	account, err := sess.RequireAccount()
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateSellOrder: %w", err)
	}
	if err := c.validateOrder(shares, price); err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.CreateSellOrder: %w", err)
	}
	if c.shares != nil {
		holdings, err := c.shares.GetSharesByOwner(ctx, account)
		if err != nil {
			return domain.TxResult{}, fmt.Errorf("trade.CreateSellOrder: reading holdings: %w", err)
		}
		if held := domain.SharesOf(holdings, stockID); shares > held {
			return domain.TxResult{}, fmt.Errorf("trade.CreateSellOrder: %w: selling %d shares, holding %d",
				domain.ErrExceedsBound, shares, held)
		}
	}
	return c.submit(ctx, sess, domain.TxIntent{
		Kind:          domain.IntentCreateSellOrder,
		StockID:       stockID,
		Shares:        shares,
		PricePerShare: price,
	})
}

func (c *Composer) CancelBuyOrder(ctx context.Context, orderID uint64) (domain.TxResult, error) {
	return c.direct(ctx, "trade.CancelBuyOrder", domain.TxIntent{Kind: domain.IntentCancelBuyOrder, OrderID: orderID})
}

func (c *Composer) CancelSellOrder(ctx context.Context, orderID uint64) (domain.TxResult, error) {
	return c.direct(ctx, "trade.CancelSellOrder", domain.TxIntent{Kind: domain.IntentCancelSellOrder, OrderID: orderID})
}

func (c *Composer) direct(ctx context.Context, op string, intent domain.TxIntent) (domain.TxResult, error) {
	sess := c.session()
	if _, err := sess.RequireAccount(); err != nil {
		return domain.TxResult{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := c.submit(ctx, sess, intent)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// submit journals the intent, broadcasts it once under submitTimeout and
// resolves the journal entry with the outcome.
func (c *Composer) submit(ctx context.Context, sess session.Session, intent domain.TxIntent) (domain.TxResult, error) {
	account, err := sess.RequireAccount()
	if err != nil {
		return domain.TxResult{}, err
	}

	id := uuid.NewString()
	c.record(ctx, domain.Submission{
		ID:        id,
		SessionID: sess.ID,
		Account:   account,
		Intent:    intent,
		Status:    domain.SubmissionPending,
		CreatedAt: c.now(),
	})

	slog.Info("broadcasting intent", "kind", intent.Kind, "stock_id", intent.StockID, "shares", intent.Shares, "funds", intent.Funds)

	sctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	res, err := c.broadcaster.Broadcast(sctx, account, intent)
	cancel()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		status, txHash := domain.SubmissionRejected, ""
		var se *domain.SubmissionError
		if errors.As(err, &se) {
			txHash = se.TxHash
		}
		if errors.Is(err, domain.ErrTimeout) {
			status = domain.SubmissionTimeout
		}
		c.resolve(ctx, id, status, txHash, failureMessage(err))
		slog.Warn("intent not confirmed", "kind", intent.Kind, "stock_id", intent.StockID, "status", status, "err", err)

		if status == domain.SubmissionTimeout {
			// puede haber entrado en bloque
			c.reconcile(ctx)
		}
		return domain.TxResult{}, err
	}

	c.resolve(ctx, id, domain.SubmissionConfirmed, res.TxHash, "")
	slog.Info("intent confirmed", "kind", intent.Kind, "stock_id", intent.StockID, "tx_hash", res.TxHash, "height", res.Height)
	c.reconcile(ctx)
	return res, nil
}

func (c *Composer) record(ctx context.Context, sub domain.Submission) {
	if c.journal == nil {
		return
	}
	if err := c.journal.RecordSubmission(ctx, sub); err != nil {
		slog.Warn("journal record failed", "submission_id", sub.ID, "err", err)
	}
}

func (c *Composer) resolve(ctx context.Context, id string, status domain.SubmissionStatus, txHash, message string) {
	if c.journal == nil {
		return
	}
	if err := c.journal.ResolveSubmission(ctx, id, status, txHash, message); err != nil {
		slog.Warn("journal resolve failed", "submission_id", id, "err", err)
	}
}

func (c *Composer) reconcile(ctx context.Context) {
	if c.reconciler != nil {
		c.reconciler.Reconcile(ctx)
	}
}

func (c *Composer) session() session.Session {
	if c.reconciler == nil {
		return session.Disconnected()
	}
	return c.reconciler.Session()
}

// checkFunds compares funds against the caller's balance when a balance
// reader is wired. A failed balance read does not block the submission.
func (c *Composer) checkFunds(ctx context.Context, account string, funds domain.Micro) error {
	if c.balances == nil || funds == 0 {
		return nil
	}
	balance, err := c.balances.GetBalance(ctx, account)
	if err != nil {
		slog.Warn("balance check skipped", "account", account, "err", err)
		return nil
	}
	if funds > balance {
		return fmt.Errorf("%w: need %s, have %s", domain.ErrInsufficientFunds, funds, balance)
	}
	return nil
}

func (c *Composer) validateOrder(shares uint64, price domain.Micro) error {
	if err := c.quotes.ValidateShares(shares); err != nil {
		return err
	}
	if price == 0 {
		return fmt.Errorf("%w: price must be greater than 0", domain.ErrInvalidAmount)
	}
	return nil
}

// normalizeTicker trims and upper-cases; 2 to 5 letters or digits.
func normalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if len(t) < minTickerLen || len(t) > maxTickerLen {
		return "", fmt.Errorf("%w: %q must be %d to %d characters", domain.ErrInvalidTicker, ticker, minTickerLen, maxTickerLen)
	}
	for _, r := range t {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return "", fmt.Errorf("%w: %q has invalid character %q", domain.ErrInvalidTicker, ticker, r)
		}
	}
	return t, nil
}
