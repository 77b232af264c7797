package domain

import "time"

// ViewStatus says why a view holds what it holds.
type ViewStatus string

const (
	ViewNotConnected ViewStatus = "not_connected"
	ViewLoaded       ViewStatus = "loaded"
	ViewFailed       ViewStatus = "failed"
)

// View is one ledger read. NotConnected is distinct from Loaded with no items.
type View[T any] struct {
	Status ViewStatus
	Items  []T
	Err    error
}

// NotConnectedView returns the placeholder used when no account is connected.
func NotConnectedView[T any]() View[T] {
	return View[T]{Status: ViewNotConnected}
}

// LoadedView wraps the result of a read, Failed when err is non-nil.
func LoadedView[T any](items []T, err error) View[T] {
	if err != nil {
		return View[T]{Status: ViewFailed, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return View[T]{Status: ViewLoaded, Items: items}
}

// Snapshot is every view of one reconciliation pass. It is replaced as a
// whole, never patched.
type Snapshot struct {
	SessionID  string
	Account    string
	Connected  bool
	BuiltAt    time.Time
	MyStocks   View[StockSummary]
	InAuction  View[StockSummary]
	InSale     View[StockSummary]
	MyBids     View[Bid]
	MyShares   View[Holding]
	MyOrders   View[Order]
	OpenBids   map[uint64]View[Bid]
	Generation uint64
}
