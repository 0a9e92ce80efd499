package profit

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestEvaluateProfitable(t *testing.T) {
	e := NewEngine(d("0.0005"))

	// Borrow 10000, receive 10080 gross, pay 20 bridge + 15 gas + 5 flash fee.
	res := e.Evaluate(d("10080"), d("10000"), Costs{
		BridgeFee: d("20"),
		GasFee:    d("15"),
	})

	assert.True(t, res.Net.Equal(d("40")), "net = %s", res.Net)
	assert.True(t, res.TotalFees.Equal(d("40")))
	assert.True(t, res.Profitable)
}

func TestEvaluateBreakEvenIsNotProfitable(t *testing.T) {
	e := NewEngine(d("0.0005"))

	// gross exactly covers loan plus every fee: net == 0.
	res := e.Evaluate(d("10040"), d("10000"), Costs{
		BridgeFee: d("20"),
		GasFee:    d("15"),
	})

	assert.True(t, res.Net.IsZero(), "net = %s", res.Net)
	assert.False(t, res.Profitable)
}

func TestEvaluateLoss(t *testing.T) {
	e := NewEngine(d("0.0005"))

	res := e.Evaluate(d("9990"), d("10000"), Costs{GasFee: d("5")})

	assert.True(t, res.Net.Equal(d("-20")), "net = %s", res.Net)
	assert.False(t, res.Profitable)
}

func TestEvaluateFlashFeeOverride(t *testing.T) {
	e := NewEngine(d("0.0005"))

	res := e.Evaluate(d("10010"), d("10000"), Costs{FlashFeeRate: d("0.0009")})

	assert.True(t, res.TotalFees.Equal(d("9")), "fees = %s", res.TotalFees)
	assert.True(t, res.Net.Equal(d("1")))
	assert.True(t, res.Profitable)
}

func TestEvaluateNoDecimalDrift(t *testing.T) {
	e := NewEngine(d("0.0005"))

	// Values chosen to break float64 math.
	res := e.Evaluate(d("0.3"), d("0.1"), Costs{BridgeFee: d("0.1"), GasFee: d("0.1")})

	assert.True(t, res.Net.Equal(d("-0.00005")), "net = %s", res.Net)
	assert.False(t, res.Profitable)
}

func TestRawConversions(t *testing.T) {
	raw := big.NewInt(1_500_000) // 1.5 USDC at 6 decimals
	assert.True(t, FromRaw(raw, 6).Equal(d("1.5")))

	back := ToRaw(d("1.5"), 6)
	require.NotNil(t, back)
	assert.Equal(t, int64(1_500_000), back.Int64())

	// Sub-unit fractions truncate.
	assert.Equal(t, int64(1), ToRaw(d("0.0000019"), 6).Int64())
}
