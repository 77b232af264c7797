package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alejandrodnm/influstock/internal/domain"
)

// Kind is the kind of interactive flow.
type Kind string

const (
	AuctionBid Kind = "auction_bid"
	QuickSell  Kind = "quick_sell"
	QuickBuy   Kind = "quick_buy"
)

// State of a Flow. Each state has exactly one payload type.
type State string

const (
	StateSelectingAmount State = "selecting_amount"
	StateQuoting         State = "quoting"
	StateConfirming      State = "confirming"
	StateSubmitting      State = "submitting"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

const (
	RouteMyBids = "/my-bids"
	RouteHome   = "/"
)

// Payload is the data attached to the current state.
type Payload interface {
	State() State
}

type SelectingAmount struct {
	Shares uint64
	Err    error
}

type Quoting struct {
	Shares uint64
}

type Confirming struct {
	Quote domain.Quote
}

type Submitting struct {
	Quote  domain.Quote
	Intent domain.TxIntent
}

type Done struct {
	Result domain.TxResult
	Route  string
}

// Failed keeps the quote so the user can resubmit without quoting again.
type Failed struct {
	Quote   domain.Quote
	Err     error
	Message string
}

func (SelectingAmount) State() State { return StateSelectingAmount }
func (Quoting) State() State         { return StateQuoting }
func (Confirming) State() State      { return StateConfirming }
func (Submitting) State() State      { return StateSubmitting }
func (Done) State() State            { return StateDone }
func (Failed) State() State          { return StateFailed }

// Flow es el diálogo cantidad → cotización → confirmación → envío de un
// trade sobre un stock. Un Flow pertenece a una sola sesión de usuario.
type Flow struct {
	c       *Composer
	kind    Kind
	stockID uint64

	mu      sync.Mutex
	payload Payload
	amount  uint64 // última cantidad elegida; una cotización solo vale para ella
}

func (f *Flow) Kind() Kind      { return f.kind }
func (f *Flow) StockID() uint64 { return f.stockID }
func (f *Flow) State() State    { return f.Payload().State() }

func (f *Flow) Payload() Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload
}

// Quote returns the quote held by Confirming, Submitting or Failed.
func (f *Flow) Quote() (domain.Quote, bool) {
	switch p := f.Payload().(type) {
	case Confirming:
		return p.Quote, true
	case Submitting:
		return p.Quote, true
	case Failed:
		return p.Quote, true
	}
	return domain.Quote{}, false
}

// SetAmount fija las shares a cotizar. Solo en SelectingAmount.
func (f *Flow) SetAmount(shares uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.payload.(SelectingAmount); !ok {
		return fmt.Errorf("trade.SetAmount: %w: flow is %s", domain.ErrInvalidState, f.payload.State())
	}
	if err := f.c.quotes.ValidateShares(shares); err != nil {
		f.payload = SelectingAmount{Shares: 0, Err: err}
		f.amount = 0
		return fmt.Errorf("trade.SetAmount: %w", err)
	}
	f.payload = SelectingAmount{Shares: shares}
	f.amount = shares
	return nil
}

// RequestQuote cotiza las shares elegidas. En error vuelve a SelectingAmount
// con el error; nunca deja el flow a medias.
func (f *Flow) RequestQuote(ctx context.Context) (domain.Quote, error) {
	f.mu.Lock()
	sel, ok := f.payload.(SelectingAmount)
	if !ok {
		state := f.payload.State()
		f.mu.Unlock()
		return domain.Quote{}, fmt.Errorf("trade.RequestQuote: %w: flow is %s", domain.ErrInvalidState, state)
	}
	if sel.Shares == 0 {
		f.mu.Unlock()
		return domain.Quote{}, fmt.Errorf("trade.RequestQuote: %w: no amount selected", domain.ErrInvalidAmount)
	}
	f.payload = Quoting{Shares: sel.Shares}
	f.mu.Unlock()

	return f.quote(ctx, sel.Shares)
}

// Requote descarta la cotización actual y pide otra para las mismas shares.
func (f *Flow) Requote(ctx context.Context) (domain.Quote, error) {
	f.mu.Lock()
	var shares uint64
	switch p := f.payload.(type) {
	case Confirming:
		shares = p.Quote.Shares
	case Failed:
		shares = p.Quote.Shares
	default:
		state := f.payload.State()
		f.mu.Unlock()
		return domain.Quote{}, fmt.Errorf("trade.Requote: %w: flow is %s", domain.ErrInvalidState, state)
	}
	f.payload = Quoting{Shares: shares}
	f.mu.Unlock()

	return f.quote(ctx, shares)
}

// ChangeAmount vuelve a SelectingAmount y descarta la cotización.
func (f *Flow) ChangeAmount() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch p := f.payload.(type) {
	case Confirming:
		f.payload = SelectingAmount{Shares: p.Quote.Shares}
	case Failed:
		f.payload = SelectingAmount{Shares: p.Quote.Shares}
	default:
		return fmt.Errorf("trade.ChangeAmount: %w: flow is %s", domain.ErrInvalidState, f.payload.State())
	}
	return nil
}

// SubmitBid puja price (micro por share) por las shares cotizadas.
// price debe ser >= el mínimo cotizado; los fondos adjuntos son price × shares.
func (f *Flow) SubmitBid(ctx context.Context, price domain.Micro) (domain.TxResult, error) {
	if f.kind != AuctionBid {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitBid: %w: %s flow", domain.ErrInvalidState, f.kind)
	}
	q, account, err := f.prepare("trade.SubmitBid")
	if err != nil {
		return domain.TxResult{}, err
	}
	if price == 0 {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitBid: %w: price must be greater than 0", domain.ErrInvalidAmount)
	}
	if price < q.Amount {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitBid: %w: %s < %s", domain.ErrBelowMinimum, price, q.Amount)
	}
	funds, err := domain.TotalFor(price, q.Shares)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitBid: %w", err)
	}
	if err := f.c.checkFunds(ctx, account, funds); err != nil {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitBid: %w", err)
	}

	intent := domain.TxIntent{
		Kind:          domain.IntentPlaceBid,
		StockID:       f.stockID,
		Shares:        q.Shares,
		PricePerShare: price,
		Funds:         funds,
	}
	return f.submit(ctx, q, intent, RouteMyBids)
}

// SubmitTrade ejecuta la compra o venta rápida cotizada con la tolerancia
// de slippage dada (porcentaje entero).
func (f *Flow) SubmitTrade(ctx context.Context, slippagePct uint64) (domain.TxResult, error) {
	if f.kind != QuickSell && f.kind != QuickBuy {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitTrade: %w: %s flow", domain.ErrInvalidState, f.kind)
	}
	q, account, err := f.prepare("trade.SubmitTrade")
	if err != nil {
		return domain.TxResult{}, err
	}
	if slippagePct > f.c.maxSlippage {
		return domain.TxResult{}, fmt.Errorf("trade.SubmitTrade: %w: slippage %d%% above max %d%%",
			domain.ErrInvalidAmount, slippagePct, f.c.maxSlippage)
	}

	var intent domain.TxIntent
	if f.kind == QuickSell {
		price := q.Amount.PerShare(q.Shares)
		if price == 0 {
			return domain.TxResult{}, fmt.Errorf("trade.SubmitTrade: %w: quoted price rounds to 0 per share", domain.ErrInvalidAmount)
		}
		intent = domain.TxIntent{
			Kind:          domain.IntentQuickSell,
			StockID:       f.stockID,
			Shares:        q.Shares,
			PricePerShare: price,
			Slippage:      slippagePct,
		}
	} else {
		funds := domain.SlippageCeil(q.Amount, slippagePct)
		if err := f.c.checkFunds(ctx, account, funds); err != nil {
			return domain.TxResult{}, fmt.Errorf("trade.SubmitTrade: %w", err)
		}
		intent = domain.TxIntent{
			Kind:     domain.IntentQuickBuy,
			StockID:  f.stockID,
			Shares:   q.Shares,
			Slippage: slippagePct,
			Funds:    funds,
		}
	}
	return f.submit(ctx, q, intent, RouteHome)
}

// prepare comprueba estado, sesión y frescura de la cotización, sin red.
// Una cotización caducada devuelve el flow a SelectingAmount.
func (f *Flow) prepare(op string) (domain.Quote, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var q domain.Quote
	switch p := f.payload.(type) {
	case Confirming:
		q = p.Quote
	case Failed:
		q = p.Quote
	default:
		return domain.Quote{}, "", fmt.Errorf("%s: %w: flow is %s", op, domain.ErrInvalidState, f.payload.State())
	}

	account, err := f.c.session().RequireAccount()
	if err != nil {
		return domain.Quote{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := q.ValidFor(f.stockID, f.amount, f.c.now(), f.c.quoteTTL); err != nil {
		f.payload = SelectingAmount{Shares: f.amount, Err: err}
		return domain.Quote{}, "", fmt.Errorf("%s: %w", op, err)
	}
	return q, account, nil
}

// heldQuote devuelve la cotización que el flow tiene ahora en Confirming o Failed.
// Requiere f.mu.
func (f *Flow) heldQuote() (domain.Quote, bool) {
	switch p := f.payload.(type) {
	case Confirming:
		return p.Quote, true
	case Failed:
		return p.Quote, true
	}
	return domain.Quote{}, false
}

func (f *Flow) quote(ctx context.Context, shares uint64) (domain.Quote, error) {
	var (
		q   domain.Quote
		err error
	)
	switch f.kind {
	case AuctionBid:
		q, err = f.c.quotes.MinimumBidPrice(ctx, f.stockID, shares)
	case QuickSell:
		q, err = f.c.quotes.ExecutionPrice(ctx, f.c.session(), f.stockID, shares, domain.SideSell)
	case QuickBuy:
		q, err = f.c.quotes.ExecutionPrice(ctx, f.c.session(), f.stockID, shares, domain.SideBuy)
	default:
		err = fmt.Errorf("unknown flow kind %q", f.kind)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.payload = SelectingAmount{Shares: shares, Err: err}
		return domain.Quote{}, fmt.Errorf("trade.RequestQuote: %w", err)
	}
	f.payload = Confirming{Quote: q}
	return q, nil
}

func (f *Flow) submit(ctx context.Context, q domain.Quote, intent domain.TxIntent, route string) (domain.TxResult, error) {
	f.mu.Lock()
	if f.payload.State() == StateSubmitting {
		f.mu.Unlock()
		return domain.TxResult{}, fmt.Errorf("trade.submit: %w: already submitting", domain.ErrInvalidState)
	}
	// Entre prepare y aquí el usuario pudo cambiar la cantidad o recotizar:
	// solo se envía si el flow sigue teniendo exactamente esta cotización.
	held, ok := f.heldQuote()
	if !ok || !sameQuote(held, q) {
		state := f.payload.State()
		f.mu.Unlock()
		return domain.TxResult{}, fmt.Errorf("trade.submit: %w: flow is %s", domain.ErrStaleQuote, state)
	}
	if err := q.ValidFor(f.stockID, f.amount, f.c.now(), f.c.quoteTTL); err != nil {
		f.payload = SelectingAmount{Shares: f.amount, Err: err}
		f.mu.Unlock()
		return domain.TxResult{}, fmt.Errorf("trade.submit: %w", err)
	}
	f.payload = Submitting{Quote: q, Intent: intent}
	f.mu.Unlock()

	res, err := f.c.submit(ctx, f.c.session(), intent)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.payload = Failed{Quote: q, Err: err, Message: failureMessage(err)}
		return domain.TxResult{}, err
	}
	f.payload = Done{Result: res, Route: route}
	if f.c.navigator != nil {
		f.c.navigator.Navigate(route)
	}
	return res, nil
}

func sameQuote(a, b domain.Quote) bool {
	return a.Kind == b.Kind && a.StockID == b.StockID && a.Shares == b.Shares &&
		a.Amount == b.Amount && a.QuotedAt.Equal(b.QuotedAt)
}

// failureMessage is the text shown to the user: the engine's own words when
// it rejected the transaction.
func failureMessage(err error) string {
	var se *domain.SubmissionError
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.Is(err, domain.ErrTimeout) {
		return "transaction not confirmed in time, check your history before retrying"
	}
	return domain.EngineMessage(err)
}
