package parser

import (
	"regexp"
	"strconv"

	"order-matcher/src/engine"
)

const ExpectedFormat = "<buy|sell> <quantity>@<price> [#<id>]"

var orderPattern = regexp.MustCompile(`(?i)^\s*(buy|sell)\s+([0-9]+)\s*@\s*([0-9]+)(?:\s+#([0-9]+))?\s*$`)

// FormatError reports text that does not follow the order grammar.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return "illegal order format, expected " + ExpectedFormat + " (" + strconv.Quote(e.Input) + ")"
}

// Parse turns a command such as "BUY 10@5 #1" into a validated order. The id
// defaults to 0 when omitted.
func Parse(line string) (engine.Order, error) {
	m := orderPattern.FindStringSubmatch(line)
	if m == nil {
		return engine.Order{}, &FormatError{Input: line}
	}

	side, err := engine.ParseSide(m[1])
	if err != nil {
		return engine.Order{}, err
	}

	quantity, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return engine.Order{}, &FormatError{Input: line}
	}

	price, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return engine.Order{}, &FormatError{Input: line}
	}

	var id int64
	if m[4] != "" {
		// edge case: id overflow is a format problem, not a value problem
		id, err = strconv.ParseInt(m[4], 10, 64)
		if err != nil {
			return engine.Order{}, &FormatError{Input: line}
		}
	}

	return engine.NewOrder(id, side, price, quantity)
}
