package domain

import "time"

// OrderSide is the direction of a standing order or quick trade.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderStatus is the lifecycle of a standing order.
type OrderStatus string

const (
	OrderOpen      OrderStatus = "open"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a post-auction standing buy or sell order.
type Order struct {
	ID            uint64
	StockID       uint64
	Ticker        string
	Side          OrderSide
	Shares        uint64
	FilledShares  uint64
	PricePerShare Micro
	Status        OrderStatus
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

// TotalPrice is price per share times the order size.
func (o Order) TotalPrice() Micro {
	total, _ := o.PricePerShare.Times(o.Shares)
	return total
}

// OrderStatusOf derives the status from the ledger resolution fields.
func OrderStatusOf(resolved bool, shares, filled uint64) OrderStatus {
	if !resolved {
		return OrderOpen
	}
	if filled >= shares {
		return OrderFilled
	}
	return OrderCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Only Open -> {Filled, Cancelled} is allowed; staying put is always fine.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	return from == OrderOpen && (to == OrderFilled || to == OrderCancelled)
}
