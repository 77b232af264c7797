package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusOf(t *testing.T) {
	assert.Equal(t, OrderOpen, OrderStatusOf(false, 10, 3))
	assert.Equal(t, OrderFilled, OrderStatusOf(true, 10, 10))
	assert.Equal(t, OrderCancelled, OrderStatusOf(true, 10, 3))
	assert.Equal(t, OrderCancelled, OrderStatusOf(true, 10, 0))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderOpen, OrderFilled))
	assert.True(t, CanTransition(OrderOpen, OrderCancelled))
	assert.True(t, CanTransition(OrderFilled, OrderFilled))

	assert.False(t, CanTransition(OrderFilled, OrderOpen))
	assert.False(t, CanTransition(OrderCancelled, OrderOpen))
	assert.False(t, CanTransition(OrderFilled, OrderCancelled))
	assert.False(t, CanTransition(OrderCancelled, OrderFilled))
}

func TestOrder_TotalPrice(t *testing.T) {
	o := Order{Shares: 3, PricePerShare: 1_234_567}
	assert.Equal(t, Micro(3_703_701), o.TotalPrice())
}
