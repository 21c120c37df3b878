package conv

import (
	"testing"

	"github.com/ericlagergren/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundToCents(t *testing.T) {
	cases := map[string]string{
		"100":      "100.00",
		"99.995":   "100.00",
		"99.994":   "99.99",
		"0.005":    "0.01",
		"0.004999": "0.00",
		"15.125":   "15.13",
	}
	for in, expected := range cases {
		d, ok := new(decimal.Big).SetString(in)
		assert.True(t, ok)
		assert.Equal(t, expected, RoundToCents(d).String(), "rounding %s", in)
	}
}

func TestAbs(t *testing.T) {
	d, _ := new(decimal.Big).SetString("-12.5")
	assert.Equal(t, "12.5", Abs(d).String())
	// the input is left untouched
	assert.Equal(t, "-12.5", d.String())
}
