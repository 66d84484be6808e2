package engine

import (
	"fmt"
	"strconv"
	"strings"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(SideBuy):
		return SideBuy, nil
	case string(SideSell):
		return SideSell, nil
	}
	return "", &ValidationError{Field: "side", Message: "side must be BUY or SELL"}
}

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	}
	panic(&ConsistencyError{Reason: "unknown side " + strconv.Quote(string(s))})
}

// Order is a limit order. Quantity is the remaining quantity once the order
// rests in the book.
type Order struct {
	ID       int64
	Side     Side
	Price    int64
	Quantity int64
}

func NewOrder(id int64, side Side, price, quantity int64) (Order, error) {
	if !side.Valid() {
		return Order{}, &ValidationError{Field: "side", Message: "side must be BUY or SELL"}
	}
	if price < 0 {
		return Order{}, &ValidationError{Field: "price", Message: "price must be >= 0"}
	}
	if quantity <= 0 {
		return Order{}, &ValidationError{Field: "quantity", Message: "quantity must be > 0"}
	}
	return Order{ID: id, Side: side, Price: price, Quantity: quantity}, nil
}

func (o Order) String() string {
	return fmt.Sprintf("%s %d@%d #%d", o.Side, o.Quantity, o.Price, o.ID)
}

// Trade is always priced at the passive order's price.
type Trade struct {
	ActiveOrderID  int64
	PassiveOrderID int64
	Price          int64
	Quantity       int64
}

func (t Trade) String() string {
	return fmt.Sprintf("TRADE %d@%d (#%d/#%d)", t.Quantity, t.Price, t.ActiveOrderID, t.PassiveOrderID)
}

// Compact renders the trade without order ids.
func (t Trade) Compact() string {
	return fmt.Sprintf("TRADE %d@%d", t.Quantity, t.Price)
}
