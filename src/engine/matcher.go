package engine

// MatchAtPrice consumes up to available quantity from the level's queue in
// FIFO order and returns the trades in consumption order. Filled orders leave
// the queue; a partially filled order keeps its place at the front.
//
// The level must exist and hold at least one order.
func MatchAtPrice(level *PriceLevel, available int64, activeOrderID int64) []Trade {
	if level == nil {
		panic(&ConsistencyError{Reason: "match against missing price level"})
	}
	if level.Len() == 0 {
		panic(&ConsistencyError{Reason: "match against empty price level"})
	}

	trades := make([]Trade, 0, 1)

	for available > 0 && level.Len() > 0 {
		resting := level.Front()

		var qty int64
		switch {
		case available > resting.Quantity:
			qty = resting.Quantity
			available -= qty
		case available < resting.Quantity:
			qty = available
			available = 0
		default:
			qty = resting.Quantity
			available = 0
		}

		level.fillFront(qty)
		trades = append(trades, Trade{
			ActiveOrderID:  activeOrderID,
			PassiveOrderID: resting.ID,
			Price:          level.Price,
			Quantity:       qty,
		})
	}

	return trades
}
