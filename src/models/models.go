package models

// SubmitOrderRequest carries either a text command ("BUY 10@5 #1") or the
// structured fields. Command wins when both are present.
type SubmitOrderRequest struct {
	Command  string `json:"command,omitempty"`
	ID       int64  `json:"id"`
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type SubmitOrderResponse struct {
	Order             OrderInfo   `json:"order"`
	Status            string      `json:"status"`
	Message           string      `json:"message,omitempty"`
	FilledQuantity    int64       `json:"filled_quantity"`
	RemainingQuantity int64       `json:"remaining_quantity"`
	Trades            []TradeInfo `json:"trades"`
}

type OrderInfo struct {
	ID       int64  `json:"id"`
	Side     string `json:"side"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Text     string `json:"text"` // e.g. "BUY 100@10 #1"
}

type TradeInfo struct {
	ActiveOrderID  int64  `json:"active_order_id"`
	PassiveOrderID int64  `json:"passive_order_id"`
	Price          int64  `json:"price"` // always the passive order's price
	Quantity       int64  `json:"quantity"`
	Text           string `json:"text"` // e.g. "TRADE 60@10 (#2/#1)"
}

type OrdersResponse struct {
	Side   string      `json:"side"`
	Orders []OrderInfo `json:"orders"` // priority order
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderBookResponse struct {
	Timestamp int64            `json:"timestamp"` // unix timestamp in milliseconds
	BestBid   *int64           `json:"best_bid,omitempty"`
	BestAsk   *int64           `json:"best_ask,omitempty"`
	Spread    *int64           `json:"spread,omitempty"`
	Bids      []PriceLevelInfo `json:"bids"` // sorted descending (highest first)
	Asks      []PriceLevelInfo `json:"asks"` // sorted ascending (lowest first)
}

type PriceLevelInfo struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"` // aggregated quantity at this price
	Orders   int   `json:"orders"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OrdersResting int64  `json:"orders_resting"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersMatched          int64   `json:"orders_matched"`
	OrdersRejected         int64   `json:"orders_rejected"`
	OrdersInBook           int64   `json:"orders_in_book"`
	InFlightRequests       int64   `json:"in_flight_requests"`
	TradesExecuted         int64   `json:"trades_executed"`
	VolumeTraded           int64   `json:"volume_traded"`
	LatencyP50Ms           float64 `json:"latency_p50_ms"`
	LatencyP99Ms           float64 `json:"latency_p99_ms"`
	LatencyP999Ms          float64 `json:"latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
