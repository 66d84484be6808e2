package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"order-matcher/src/engine"
	"order-matcher/src/parser"
)

const helpText = `Available commands:
  BUY|SELL <quantity>@<price> [#<id>]  - Enter an order.
  PRINT                                - List all remaining orders.
  QUIT                                 - Quit.
  HELP                                 - Show help (this message).
`

// Console is a line-oriented shell over a single order book.
type Console struct {
	book   *engine.OrderBook
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func New(book *engine.OrderBook, in io.Reader, out, errOut io.Writer) *Console {
	return &Console{book: book, in: in, out: out, errOut: errOut}
}

// Run reads commands until QUIT, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(c.out, "Welcome to the order matcher. Type 'help' for a list of commands. To quit hit 'Ctrl+d' or 'QUIT'")
	fmt.Fprintln(c.out)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

loop:
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok || !c.handle(strings.TrimSpace(line)) {
				break loop
			}
		}
	}
	fmt.Fprintln(c.out, "Good bye!")

	select {
	case err := <-scanErr:
		return err
	default:
		return nil
	}
}

// handle executes one command and reports whether the loop should continue.
func (c *Console) handle(line string) bool {
	switch strings.ToUpper(line) {
	case "":
		return true
	case "HELP":
		fmt.Fprint(c.out, helpText)
	case "QUIT":
		return false
	case "PRINT":
		fmt.Fprintln(c.out, "--- BUY ---")
		printAll(c.out, c.book.Orders(engine.SideBuy))
		fmt.Fprintln(c.out, "--- SELL ---")
		printAll(c.out, c.book.Orders(engine.SideSell))
	default:
		order, err := parser.Parse(line)
		if err != nil {
			log.Debug().Err(err).Str("input", line).Msg("Rejected console input")
			fmt.Fprintln(c.errOut, "Bad input: "+err.Error())
			return true
		}
		trades := c.book.Place(order)
		log.Debug().
			Int64("order_id", order.ID).
			Str("side", string(order.Side)).
			Int64("price", order.Price).
			Int64("quantity", order.Quantity).
			Int("trades", len(trades)).
			Msg("Order placed")
		printAll(c.out, trades)
	}
	return true
}

func printAll[T fmt.Stringer](w io.Writer, items []T) {
	for _, item := range items {
		fmt.Fprintln(w, item.String())
	}
}
