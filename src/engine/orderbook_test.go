package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOrder(t *testing.T, id int64, side Side, quantity, price int64) Order {
	t.Helper()
	order, err := NewOrder(id, side, price, quantity)
	require.NoError(t, err)
	return order
}

func render[T interface{ String() string }](items []T) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

func TestPlaceRestsUnmatchedBuy(t *testing.T) {
	ob := NewOrderBook()

	trades := ob.Place(mustOrder(t, 1, SideBuy, 100, 10))

	assert.Empty(t, trades)
	assert.Equal(t, []string{"BUY 100@10 #1"}, render(ob.Orders(SideBuy)))
	assert.Empty(t, ob.Orders(SideSell))
}

func TestPlacePartialFillOfResting(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideBuy, 100, 10))

	trades := ob.Place(mustOrder(t, 2, SideSell, 60, 10))

	assert.Equal(t, []string{"TRADE 60@10 (#2/#1)"}, render(trades))
	assert.Equal(t, []string{"BUY 40@10 #1"}, render(ob.Orders(SideBuy)))
	assert.Empty(t, ob.Orders(SideSell))
}

func TestPlaceStopsAtLimitPrice(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideSell, 50, 11))
	ob.Place(mustOrder(t, 2, SideSell, 100, 10))

	trades := ob.Place(mustOrder(t, 3, SideBuy, 150, 10))

	assert.Equal(t, []string{"TRADE 100@10 (#3/#2)"}, render(trades))
	assert.Equal(t, []string{"BUY 50@10 #3"}, render(ob.Orders(SideBuy)))
	assert.Equal(t, []string{"SELL 50@11 #1"}, render(ob.Orders(SideSell)))
}

func TestPlaceTimePriorityAtSamePrice(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideBuy, 50, 10))
	ob.Place(mustOrder(t, 2, SideBuy, 100, 10))

	trades := ob.Place(mustOrder(t, 3, SideSell, 150, 10))

	assert.Equal(t, []string{"TRADE 50@10 (#3/#1)", "TRADE 100@10 (#3/#2)"}, render(trades))
	assert.Empty(t, ob.Orders(SideBuy))
	assert.Empty(t, ob.Orders(SideSell))
	assert.Equal(t, 0, ob.bids.Len())
}

func TestPlaceSellWithoutBids(t *testing.T) {
	ob := NewOrderBook()

	trades := ob.Place(mustOrder(t, 2, SideSell, 100, 9))

	assert.Empty(t, trades)
	assert.Equal(t, []string{"SELL 100@9 #2"}, render(ob.Orders(SideSell)))
}

func TestPricePriorityIgnoresArrivalOrder(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideSell, 10, 12))
	ob.Place(mustOrder(t, 2, SideSell, 10, 10))
	ob.Place(mustOrder(t, 3, SideSell, 10, 11))

	assert.Equal(t, []string{"SELL 10@10 #2", "SELL 10@11 #3", "SELL 10@12 #1"}, render(ob.Orders(SideSell)))

	trades := ob.Place(mustOrder(t, 4, SideBuy, 25, 12))

	assert.Equal(t, []string{
		"TRADE 10@10 (#4/#2)",
		"TRADE 10@11 (#4/#3)",
		"TRADE 5@12 (#4/#1)",
	}, render(trades))
	assert.Equal(t, []string{"SELL 5@12 #1"}, render(ob.Orders(SideSell)))
}

func TestBidsListedHighestFirst(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideBuy, 10, 8))
	ob.Place(mustOrder(t, 2, SideBuy, 10, 10))
	ob.Place(mustOrder(t, 3, SideBuy, 10, 9))
	ob.Place(mustOrder(t, 4, SideBuy, 5, 10))

	assert.Equal(t, []string{"BUY 10@10 #2", "BUY 5@10 #4", "BUY 10@9 #3", "BUY 10@8 #1"}, render(ob.Orders(SideBuy)))
}

func TestPassivePriceImprovement(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideBuy, 10, 15))

	trades := ob.Place(mustOrder(t, 2, SideSell, 10, 5))

	require.Len(t, trades, 1)
	assert.Equal(t, int64(15), trades[0].Price)
}

func TestPartialFillKeepsQueuePosition(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideSell, 100, 10))
	ob.Place(mustOrder(t, 2, SideSell, 100, 10))

	ob.Place(mustOrder(t, 3, SideBuy, 30, 10))
	trades := ob.Place(mustOrder(t, 4, SideBuy, 80, 10))

	assert.Equal(t, []string{"TRADE 70@10 (#4/#1)", "TRADE 10@10 (#4/#2)"}, render(trades))
	assert.Equal(t, []string{"SELL 90@10 #2"}, render(ob.Orders(SideSell)))
}

func TestPlaceDoesNotMutateCallerOrder(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideSell, 40, 10))

	order := mustOrder(t, 2, SideBuy, 100, 10)
	ob.Place(order)

	assert.Equal(t, int64(100), order.Quantity)

	snapshot := ob.Orders(SideBuy)
	require.Len(t, snapshot, 1)
	snapshot[0].Quantity = 1
	assert.Equal(t, int64(60), ob.Orders(SideBuy)[0].Quantity)
}

func TestRepeatedIDsAreCorrelationTags(t *testing.T) {
	ob := NewOrderBook()
	ob.Place(mustOrder(t, 1, SideSell, 10, 10))
	ob.Place(mustOrder(t, 1, SideSell, 10, 10))

	trades := ob.Place(mustOrder(t, 1, SideBuy, 20, 10))

	assert.Equal(t, []string{"TRADE 10@10 (#1/#1)", "TRADE 10@10 (#1/#1)"}, render(trades))
	assert.Equal(t, 0, ob.Len())
}

func TestBestBidAskAndDepth(t *testing.T) {
	ob := NewOrderBook()

	_, _, ok := ob.BestBid()
	assert.False(t, ok)
	_, _, ok = ob.BestAsk()
	assert.False(t, ok)

	ob.Place(mustOrder(t, 1, SideBuy, 10, 9))
	ob.Place(mustOrder(t, 2, SideBuy, 15, 9))
	ob.Place(mustOrder(t, 3, SideBuy, 5, 8))
	ob.Place(mustOrder(t, 4, SideSell, 7, 11))
	ob.Place(mustOrder(t, 5, SideSell, 3, 12))

	price, qty, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(9), price)
	assert.Equal(t, int64(25), qty)

	price, qty, ok = ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(11), price)
	assert.Equal(t, int64(7), qty)

	assert.Equal(t, []LevelSnapshot{{Price: 9, Quantity: 25, Orders: 2}}, ob.Depth(SideBuy, 1))
	assert.Equal(t, []LevelSnapshot{
		{Price: 11, Quantity: 7, Orders: 1},
		{Price: 12, Quantity: 3, Orders: 1},
	}, ob.Depth(SideSell, 0))
	assert.Equal(t, 5, ob.Len())
}

// checkBook asserts the structural invariants that must hold between calls.
func checkBook(t *testing.T, ob *OrderBook) {
	t.Helper()

	for _, side := range []Side{SideBuy, SideSell} {
		ob.levels(side).Ascend(func(level *PriceLevel) bool {
			require.Greater(t, level.TotalQuantity(), int64(0), "empty level %d left on %s", level.Price, side)
			var sum int64
			for _, o := range level.Orders() {
				require.Greater(t, o.Quantity, int64(0))
				require.Equal(t, level.Price, o.Price)
				require.Equal(t, side, o.Side)
				sum += o.Quantity
			}
			require.Equal(t, sum, level.TotalQuantity())
			return true
		})
	}

	bid, _, hasBid := ob.BestBid()
	ask, _, hasAsk := ob.BestAsk()
	if hasBid && hasAsk {
		require.Less(t, bid, ask, "book left crossed")
	}
}

func TestRandomizedBookInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ob := NewOrderBook()

	submitted := make(map[int64]int64)
	traded := make(map[int64]int64)

	for id := int64(1); id <= 2000; id++ {
		side := SideBuy
		if rng.Intn(2) == 0 {
			side = SideSell
		}
		order := mustOrder(t, id, side, 1+rng.Int63n(100), 90+rng.Int63n(20))
		submitted[id] = order.Quantity

		trades := ob.Place(order)

		lastPrice := int64(-1)
		for _, tr := range trades {
			require.Equal(t, id, tr.ActiveOrderID)
			require.Greater(t, tr.Quantity, int64(0))
			// each trade is at the passive order's price, never worse than the limit
			if side == SideBuy {
				require.LessOrEqual(t, tr.Price, order.Price)
				if lastPrice >= 0 {
					require.GreaterOrEqual(t, tr.Price, lastPrice)
				}
			} else {
				require.GreaterOrEqual(t, tr.Price, order.Price)
				if lastPrice >= 0 {
					require.LessOrEqual(t, tr.Price, lastPrice)
				}
			}
			lastPrice = tr.Price
			traded[tr.ActiveOrderID] += tr.Quantity
			traded[tr.PassiveOrderID] += tr.Quantity
		}

		checkBook(t, ob)
	}

	resting := make(map[int64]int64)
	for _, side := range []Side{SideBuy, SideSell} {
		for _, o := range ob.Orders(side) {
			resting[o.ID] += o.Quantity
		}
	}

	for id, qty := range submitted {
		assert.Equal(t, qty, traded[id]+resting[id], "quantity not conserved for order %d", id)
	}
}
