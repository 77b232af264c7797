package domain

// IntentKind names a mutating message of the settlement engine.
type IntentKind string

const (
	IntentCreateStock     IntentKind = "create_stock"
	IntentStartAuction    IntentKind = "start_auction"
	IntentEndAuction      IntentKind = "end_auction"
	IntentPlaceBid        IntentKind = "place_bid"
	IntentCreateBuyOrder  IntentKind = "create_buy_order"
	IntentCreateSellOrder IntentKind = "create_sell_order"
	IntentCancelBuyOrder  IntentKind = "cancel_buy_order"
	IntentCancelSellOrder IntentKind = "cancel_sell_order"
	IntentQuickBuy        IntentKind = "quick_buy"
	IntentQuickSell       IntentKind = "quick_sell"
)

// TxIntent is one composed, not yet signed, contract execution.
// Which fields are meaningful depends on Kind.
type TxIntent struct {
	Kind          IntentKind
	StockID       uint64
	OrderID       uint64
	Ticker        string
	Shares        uint64
	PricePerShare Micro
	Slippage      uint64 // percent, 1 = 1%
	Funds         Micro  // attached to the message, 0 for none
}

// TxResult is what the chain reports for an included transaction.
type TxResult struct {
	TxHash  string
	Height  int64
	GasUsed int64
}
