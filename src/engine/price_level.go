package engine

import (
	"strconv"

	"github.com/gammazero/deque"
)

// PriceLevel is the FIFO queue of resting orders at one price on one side.
// The level owns its orders; the only mutation is fillFront.
type PriceLevel struct {
	Price  int64
	orders deque.Deque[Order]
	total  int64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

func (pl *PriceLevel) Len() int {
	return pl.orders.Len()
}

func (pl *PriceLevel) TotalQuantity() int64 {
	return pl.total
}

func (pl *PriceLevel) Front() Order {
	return pl.orders.Front()
}

// Orders returns a copy of the queue in time priority.
func (pl *PriceLevel) Orders() []Order {
	out := make([]Order, 0, pl.orders.Len())
	for i := 0; i < pl.orders.Len(); i++ {
		out = append(out, pl.orders.At(i))
	}
	return out
}

func (pl *PriceLevel) push(order Order) {
	pl.orders.PushBack(order)
	pl.total += order.Quantity
}

// fillFront reduces the oldest order by qty and drops it once it reaches zero.
func (pl *PriceLevel) fillFront(qty int64) Order {
	if pl.orders.Len() == 0 {
		panic(&ConsistencyError{Reason: "fill on empty level " + strconv.FormatInt(pl.Price, 10)})
	}
	front := pl.orders.Front()
	if qty <= 0 || qty > front.Quantity {
		panic(&ConsistencyError{Reason: "fill of " + strconv.FormatInt(qty, 10) + " exceeds resting quantity " + strconv.FormatInt(front.Quantity, 10)})
	}

	front.Quantity -= qty
	pl.total -= qty
	if pl.total < 0 {
		panic(&ConsistencyError{Reason: "negative total at level " + strconv.FormatInt(pl.Price, 10)})
	}

	pl.orders.PopFront()
	if front.Quantity > 0 {
		pl.orders.PushFront(front)
	}
	return front
}
