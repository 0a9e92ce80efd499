package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexomega/titan/internal/evm"
)

type mockBackend struct {
	callData []byte
	result   []byte
	err      error
}

func (m *mockBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.callData = call.Data
	return m.result, m.err
}

func (m *mockBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(30_000_000_000), nil
}

func (m *mockBackend) BlockNumber(context.Context) (uint64, error) { return 1, nil }

type mockSource struct{ backend *mockBackend }

func (m *mockSource) Backend(context.Context, int64) (evm.Backend, error) {
	return m.backend, nil
}

func packQuoteResult(t *testing.T, amountOut *big.Int) []byte {
	t.Helper()
	out, err := quoter().Methods["quoteExactInputSingle"].Outputs.Pack(
		amountOut, big.NewInt(0), uint32(0), big.NewInt(120_000))
	require.NoError(t, err)
	return out
}

const (
	usdcPolygon = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
	wethPolygon = "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"
)

func TestQuoteExactInput(t *testing.T) {
	want := big.NewInt(987_654_321)
	backend := &mockBackend{result: packQuoteResult(t, want)}
	sim := NewSimulator(&mockSource{backend: backend}, nil)

	got, err := sim.QuoteExactInput(context.Background(), 137, usdcPolygon, wethPolygon, big.NewInt(1_000_000_000), 500)
	require.NoError(t, err)
	assert.Equal(t, 0, want.Cmp(got))
}

func TestQuoteRevertYieldsZero(t *testing.T) {
	backend := &mockBackend{err: errors.New("execution reverted")}
	sim := NewSimulator(&mockSource{backend: backend}, nil)

	got, err := sim.QuoteExactInput(context.Background(), 137, usdcPolygon, wethPolygon, big.NewInt(1_000_000), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int64())
}

func TestQuoteDefaultsFeeTier(t *testing.T) {
	backend := &mockBackend{result: packQuoteResult(t, big.NewInt(1))}
	sim := NewSimulator(&mockSource{backend: backend}, nil)

	_, err := sim.QuoteExactInput(context.Background(), 137, usdcPolygon, wethPolygon, big.NewInt(1), 0)
	require.NoError(t, err)

	// The sent calldata must match a quote packed with the default tier.
	want, err := quoter().Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           common.HexToAddress(usdcPolygon),
		TokenOut:          common.HexToAddress(wethPolygon),
		AmountIn:          big.NewInt(1),
		Fee:               big.NewInt(DefaultFeeTier),
		SqrtPriceLimitX96: big.NewInt(0),
	})
	require.NoError(t, err)
	assert.Equal(t, want, backend.callData)
}
