package handlers

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"order-matcher/src/config"
	"order-matcher/src/engine"
	"order-matcher/src/middleware"
	"order-matcher/src/models"
	"order-matcher/src/parser"
)

const (
	StatusResting     = "RESTING"
	StatusPartialFill = "PARTIAL_FILL"
	StatusFilled      = "FILLED"
)

// OrderHandler serves one order book. Every book access goes through mu.
type OrderHandler struct {
	book *engine.OrderBook
	mu   sync.Mutex

	cfg       config.OrderBookConfig
	StartTime time.Time

	OrdersReceived int64
	OrdersMatched  int64
	OrdersRejected int64
	TradesExecuted int64
	VolumeTraded   int64

	latencies *latencyWindow
	halted    atomic.Bool
	inFlight  func() int64
}

func NewOrderHandler(book *engine.OrderBook, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		book:      book,
		cfg:       cfg.OrderBook,
		StartTime: time.Now(),
		latencies: newLatencyWindow(cfg.Metrics.MaxLatencies),
	}
}

// Place runs one order through the book under the handler's lock. A broken
// book invariant halts the handler: the panic is re-raised and every later
// order is refused.
func (h *OrderHandler) Place(order engine.Order) []engine.Trade {
	start := time.Now()
	defer func() { h.latencies.record(time.Since(start)) }()

	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			h.halted.Store(true)
			log.Error().
				Interface("panic", r).
				Int64("order_id", order.ID).
				Msg("Order book halted")
			panic(r)
		}
	}()

	return h.book.Place(order)
}

// ReportInFlight sets the source of the in-flight request count shown by
// /metrics.
func (h *OrderHandler) ReportInFlight(fn func() int64) {
	h.inFlight = fn
}

func (h *OrderHandler) Halted() bool {
	return h.halted.Load()
}

func (h *OrderHandler) Orders(side engine.Side) []engine.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.book.Orders(side)
}

func orderFromRequest(req *models.SubmitOrderRequest) (engine.Order, error) {
	if req.Command != "" {
		return parser.Parse(req.Command)
	}
	side, err := engine.ParseSide(req.Side)
	if err != nil {
		return engine.Order{}, err
	}
	return engine.NewOrder(req.ID, side, req.Price, req.Quantity)
}

func isInputError(err error) bool {
	var verr *engine.ValidationError
	var ferr *parser.FormatError
	return errors.As(err, &verr) || errors.As(err, &ferr)
}

func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest

	if err := c.BodyParser(&req); err != nil {
		atomic.AddInt64(&h.OrdersRejected, 1)
		log.Warn().
			Err(err).
			Str("request_id", middleware.RequestID(c)).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	order, err := orderFromRequest(&req)
	if err != nil {
		atomic.AddInt64(&h.OrdersRejected, 1)
		if !isInputError(err) {
			return err
		}
		log.Warn().
			Err(err).
			Str("request_id", middleware.RequestID(c)).
			Str("command", req.Command).
			Str("side", req.Side).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	if h.Halted() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Order book halted",
		})
	}

	atomic.AddInt64(&h.OrdersReceived, 1)
	trades := h.Place(order)

	response := models.SubmitOrderResponse{
		Order:  orderInfo(order),
		Trades: make([]models.TradeInfo, 0, len(trades)),
	}
	for _, trade := range trades {
		log.Debug().
			Str("request_id", middleware.RequestID(c)).
			Int64("active_order_id", trade.ActiveOrderID).
			Int64("passive_order_id", trade.PassiveOrderID).
			Msg(trade.Compact())
		response.Trades = append(response.Trades, tradeInfo(trade))
		response.FilledQuantity += trade.Quantity
	}
	response.RemainingQuantity = order.Quantity - response.FilledQuantity

	if len(trades) > 0 {
		atomic.AddInt64(&h.OrdersMatched, 1)
		atomic.AddInt64(&h.TradesExecuted, int64(len(trades)))
		atomic.AddInt64(&h.VolumeTraded, response.FilledQuantity)
	}

	log.Info().
		Str("request_id", middleware.RequestID(c)).
		Int64("order_id", order.ID).
		Str("side", string(order.Side)).
		Int64("price", order.Price).
		Int64("quantity", order.Quantity).
		Int64("filled_quantity", response.FilledQuantity).
		Int("trades", len(trades)).
		Msg("Order processed")

	switch {
	case response.FilledQuantity == 0:
		response.Status = StatusResting
		response.Message = "Order added to book"
		return c.Status(fiber.StatusCreated).JSON(response)
	case response.RemainingQuantity > 0:
		response.Status = StatusPartialFill
		response.Message = "Remainder added to book"
		return c.Status(fiber.StatusAccepted).JSON(response)
	default:
		response.Status = StatusFilled
		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	side, err := engine.ParseSide(c.Query("side"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	orders := h.Orders(side)
	infos := make([]models.OrderInfo, 0, len(orders))
	for _, o := range orders {
		infos = append(infos, orderInfo(o))
	}

	return c.Status(fiber.StatusOK).JSON(models.OrdersResponse{
		Side:   string(side),
		Orders: infos,
	})
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	depth, err := strconv.Atoi(c.Query("depth", strconv.Itoa(h.cfg.DefaultDepth)))
	if err != nil || depth <= 0 {
		depth = h.cfg.DefaultDepth
	}
	// edge case: enforce maximum depth limit
	if h.cfg.MaxDepth > 0 && depth > h.cfg.MaxDepth {
		depth = h.cfg.MaxDepth
	}

	h.mu.Lock()
	bids := h.book.Depth(engine.SideBuy, depth)
	asks := h.book.Depth(engine.SideSell, depth)
	bidPrice, _, hasBid := h.book.BestBid()
	askPrice, _, hasAsk := h.book.BestAsk()
	h.mu.Unlock()

	response := models.OrderBookResponse{
		Timestamp: time.Now().UnixMilli(),
		Bids:      levelInfos(bids),
		Asks:      levelInfos(asks),
	}
	if hasBid {
		response.BestBid = &bidPrice
	}
	if hasAsk {
		response.BestAsk = &askPrice
	}
	if hasBid && hasAsk {
		spread := askPrice - bidPrice
		response.Spread = &spread
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	h.mu.Lock()
	resting := h.book.Len()
	h.mu.Unlock()

	status := "healthy"
	if h.Halted() {
		status = "halted"
	}

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.StartTime).Seconds()),
		OrdersResting: int64(resting),
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	h.mu.Lock()
	resting := h.book.Len()
	h.mu.Unlock()

	p50, p99, p999 := h.latencies.percentiles()

	var inFlight int64
	if h.inFlight != nil {
		inFlight = h.inFlight()
	}

	var throughput float64
	if uptime := time.Since(h.StartTime).Seconds(); uptime > 0 {
		throughput = float64(atomic.LoadInt64(&h.OrdersReceived)) / uptime
	}

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         atomic.LoadInt64(&h.OrdersReceived),
		OrdersMatched:          atomic.LoadInt64(&h.OrdersMatched),
		OrdersRejected:         atomic.LoadInt64(&h.OrdersRejected),
		OrdersInBook:           int64(resting),
		InFlightRequests:       inFlight,
		TradesExecuted:         atomic.LoadInt64(&h.TradesExecuted),
		VolumeTraded:           atomic.LoadInt64(&h.VolumeTraded),
		LatencyP50Ms:           p50,
		LatencyP99Ms:           p99,
		LatencyP999Ms:          p999,
		ThroughputOrdersPerSec: throughput,
	})
}

func orderInfo(o engine.Order) models.OrderInfo {
	return models.OrderInfo{
		ID:       o.ID,
		Side:     string(o.Side),
		Price:    o.Price,
		Quantity: o.Quantity,
		Text:     o.String(),
	}
}

func tradeInfo(t engine.Trade) models.TradeInfo {
	return models.TradeInfo{
		ActiveOrderID:  t.ActiveOrderID,
		PassiveOrderID: t.PassiveOrderID,
		Price:          t.Price,
		Quantity:       t.Quantity,
		Text:           t.String(),
	}
}

func levelInfos(levels []engine.LevelSnapshot) []models.PriceLevelInfo {
	out := make([]models.PriceLevelInfo, 0, len(levels))
	for _, l := range levels {
		out = append(out, models.PriceLevelInfo{
			Price:    l.Price,
			Quantity: l.Quantity,
			Orders:   l.Orders,
		})
	}
	return out
}
