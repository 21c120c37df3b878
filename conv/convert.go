package conv

import "github.com/ericlagergren/decimal"

var zeroRounded decimal.Big

func init() {
	zeroRounded = decimal.Big{}
	zeroRounded.Context = decimal.Context128
	zeroRounded.Context.RoundingMode = decimal.ToZero
	zeroRounded.Quantize(8)
}

// NewDecimalWithPrecision creates a new zero decimal with the default context
func NewDecimalWithPrecision() *decimal.Big {
	z := zeroRounded
	return &z
}

func CloneToPrecision(amount *decimal.Big) *decimal.Big {
	dec := &decimal.Big{}
	dec.Context = decimal.Context128
	dec.Context.RoundingMode = decimal.ToZero
	dec.Copy(amount)
	dec.Quantize(8)
	return dec
}

func RoundToPrecision(amount *decimal.Big) *decimal.Big {
	amount.Context = decimal.Context128
	amount.Context.RoundingMode = decimal.ToZero
	amount.Quantize(8)

	return amount
}

// RoundToCents rounds a money amount half up to two decimals. All commission
// amounts credited to MT5 use this rounding.
func RoundToCents(amount *decimal.Big) *decimal.Big {
	amount.Context = decimal.Context128
	amount.Context.RoundingMode = decimal.ToNearestAway
	amount.Quantize(2)

	return amount
}

// Abs returns a new decimal holding the absolute value of the given amount
func Abs(amount *decimal.Big) *decimal.Big {
	dec := NewDecimalWithPrecision()
	return dec.Abs(amount)
}
