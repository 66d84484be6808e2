package engine

import (
	"github.com/google/btree"
)

const btreeDegree = 32

// OrderBook holds the resting orders of a single instrument.
//
// OrderBook is not safe for concurrent use; callers serialize access.
type OrderBook struct {
	bids *btree.BTreeG[*PriceLevel] // sorted descending (highest first)
	asks *btree.BTreeG[*PriceLevel] // sorted ascending (lowest first)
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: btree.NewG(btreeDegree, func(a, b *PriceLevel) bool { return a.Price > b.Price }),
		asks: btree.NewG(btreeDegree, func(a, b *PriceLevel) bool { return a.Price < b.Price }),
	}
}

func (ob *OrderBook) levels(side Side) *btree.BTreeG[*PriceLevel] {
	switch side {
	case SideBuy:
		return ob.bids
	case SideSell:
		return ob.asks
	}
	panic(&ConsistencyError{Reason: "unknown side " + string(side)})
}

// marketable reports whether a resting level at levelPrice crosses the
// incoming order's limit.
func marketable(order Order, levelPrice int64) bool {
	switch order.Side {
	case SideBuy:
		return levelPrice <= order.Price
	case SideSell:
		return levelPrice >= order.Price
	}
	panic(&ConsistencyError{Reason: "unknown side " + string(order.Side)})
}

// Place matches the order against the opposite side and rests any remainder.
// The caller's order is never modified; the book keeps its own copy.
func (ob *OrderBook) Place(order Order) []Trade {
	trades := make([]Trade, 0)
	remaining := order.Quantity

	opposite := ob.levels(order.Side.Opposite())
	var drained []*PriceLevel

	opposite.Ascend(func(level *PriceLevel) bool {
		if remaining <= 0 || !marketable(order, level.Price) {
			return false
		}

		matched := MatchAtPrice(level, remaining, order.ID)
		for _, t := range matched {
			remaining -= t.Quantity
		}
		trades = append(trades, matched...)

		if level.TotalQuantity() == 0 {
			drained = append(drained, level)
		}
		return true
	})

	// edge case: levels cannot be removed while the tree is being iterated
	for _, level := range drained {
		if level.Len() != 0 {
			panic(&ConsistencyError{Reason: "drained level still holds orders"})
		}
		opposite.Delete(level)
	}

	if remaining > 0 {
		resting := order
		resting.Quantity = remaining
		ob.rest(resting)
	}

	return trades
}

func (ob *OrderBook) rest(order Order) {
	tree := ob.levels(order.Side)

	level, ok := tree.Get(&PriceLevel{Price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		tree.ReplaceOrInsert(level)
	}
	level.push(order)
}

// Orders returns a snapshot of every resting order on side, best price first
// and in time priority within a price.
func (ob *OrderBook) Orders(side Side) []Order {
	orders := make([]Order, 0)
	ob.levels(side).Ascend(func(level *PriceLevel) bool {
		orders = append(orders, level.Orders()...)
		return true
	})
	return orders
}

func (ob *OrderBook) BestBid() (price int64, quantity int64, ok bool) {
	return best(ob.bids)
}

func (ob *OrderBook) BestAsk() (price int64, quantity int64, ok bool) {
	return best(ob.asks)
}

func best(tree *btree.BTreeG[*PriceLevel]) (int64, int64, bool) {
	level, ok := tree.Min()
	if !ok {
		return 0, 0, false
	}
	return level.Price, level.TotalQuantity(), true
}

type LevelSnapshot struct {
	Price    int64
	Quantity int64
	Orders   int
}

// Depth aggregates up to depth levels of side in priority order. A depth
// <= 0 returns every level.
func (ob *OrderBook) Depth(side Side, depth int) []LevelSnapshot {
	snapshot := make([]LevelSnapshot, 0)
	ob.levels(side).Ascend(func(level *PriceLevel) bool {
		if depth > 0 && len(snapshot) >= depth {
			return false
		}
		snapshot = append(snapshot, LevelSnapshot{
			Price:    level.Price,
			Quantity: level.TotalQuantity(),
			Orders:   level.Len(),
		})
		return true
	})
	return snapshot
}

// Len returns the number of resting orders on both sides.
func (ob *OrderBook) Len() int {
	n := 0
	count := func(level *PriceLevel) bool {
		n += level.Len()
		return true
	}
	ob.bids.Ascend(count)
	ob.asks.Ascend(count)
	return n
}
