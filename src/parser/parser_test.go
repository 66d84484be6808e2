package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-matcher/src/engine"
)

func TestParseValidCommands(t *testing.T) {
	tests := []struct {
		input string
		want  engine.Order
	}{
		{"BUY 100@10 #1", engine.Order{ID: 1, Side: engine.SideBuy, Price: 10, Quantity: 100}},
		{"sell 60@10 #2", engine.Order{ID: 2, Side: engine.SideSell, Price: 10, Quantity: 60}},
		{"Buy 5 @ 7", engine.Order{ID: 0, Side: engine.SideBuy, Price: 7, Quantity: 5}},
		{"  SELL   3@0   #42  ", engine.Order{ID: 42, Side: engine.SideSell, Price: 0, Quantity: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsMalformedText(t *testing.T) {
	inputs := []string{
		"",
		"BUY",
		"BUY 10",
		"HOLD 10@5",
		"BUY -10@5",
		"BUY 10@-5",
		"BUY 10@5 1",
		"BUY 10@5 #",
		"BUY 1.5@5",
		"BUY 99999999999999999999@5",
		"BUY 10@5 #99999999999999999999",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var ferr *FormatError
			require.True(t, errors.As(err, &ferr), "expected FormatError, got %v", err)
			assert.Equal(t, input, ferr.Input)
		})
	}
}

func TestParseRejectsZeroQuantity(t *testing.T) {
	_, err := Parse("BUY 0@5")

	var verr *engine.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, "quantity", verr.Field)
}
