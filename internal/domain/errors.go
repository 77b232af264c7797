package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every application service. Callers match with errors.Is.
var (
	ErrNotConnected       = errors.New("no wallet connected")
	ErrQuoteFailed        = errors.New("quote failed")
	ErrNoLiquidity        = errors.New("no liquidity")
	ErrStaleQuote         = errors.New("quote is stale, request a new one")
	ErrSubmissionRejected = errors.New("submission rejected")
	ErrTimeout            = errors.New("timed out")

	ErrInvalidAmount     = errors.New("invalid amount")
	ErrExceedsBound      = errors.New("amount exceeds tradable bound")
	ErrBelowMinimum      = errors.New("price below quoted minimum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("action not allowed in current state")
	ErrInvalidTicker     = errors.New("invalid ticker")
)

// QuoteError carries the settlement engine's message for a failed quote.
type QuoteError struct {
	StockID uint64
	Message string
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("quote failed for stock %d: %s", e.StockID, e.Message)
}

func (e *QuoteError) Unwrap() error { return ErrQuoteFailed }

// SubmissionError carries the settlement engine's rejection verbatim.
type SubmissionError struct {
	TxHash  string
	Code    uint32
	Message string
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return ErrSubmissionRejected }

// EngineError is a failure reported by the settlement engine itself, with the
// engine's message already stripped of transport noise.
type EngineError struct {
	Status  int
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// EngineMessage returns the engine's own message when err carries one,
// otherwise err's text.
func EngineMessage(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}
