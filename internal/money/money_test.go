package money

import (
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]string{
		"200,00":   "200",
		"200.50":   "200.5",
		"-200,00":  "-200",
		"1.234,56": "1234.56",
		" 12,5 DA": "12.5",
		"":         "0",
		"abc":      "0",
		"--1":      "0",
		"1,2,3":    "0",
		"0,00":     "0",
		"350":      "350",
	}
	for in, want := range cases {
		got := Parse(in)
		assert.Truef(t, got.Equal(decimal.RequireFromString(want)), "Parse(%q) = %s, want %s", in, got, want)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "200,00", Format(decimal.NewFromInt(200)))
	assert.Equal(t, "-200,00", Format(decimal.NewFromInt(-200)))
	assert.Equal(t, "0,13", Format(decimal.RequireFromString("0.125")))
	assert.Equal(t, "350,00", FormatFloat(350))
	assert.Equal(t, Zero, FormatFloat(math.NaN()))
	assert.Equal(t, Zero, FormatFloat(math.Inf(1)))
	assert.Equal(t, Zero, FormatPtr(nil))
	v := 12.3
	assert.Equal(t, "12,30", FormatPtr(&v))
	assert.Equal(t, "1234,50", Normalize("1.234,5"))
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		cents := rng.Int63n(100_000_000)
		x := decimal.New(cents, -2)
		got := Parse(Format(x))
		assert.Truef(t, got.Equal(x), "round trip of %s gave %s", x, got)
	}
}

func TestRoundTripFloat(t *testing.T) {
	for _, f := range []float64{0, 0.1, 1.005, 99.999, 123456.78, -42.424} {
		want := decimal.NewFromFloat(f).Round(2)
		assert.True(t, Parse(FormatFloat(f)).Equal(want), "value %v", f)
	}
}
