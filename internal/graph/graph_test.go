package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildThreeChains(t *testing.T) {
	g := Build([]int64{137, 1, 42161})

	assert.Equal(t, []int64{1, 137, 42161}, g.ChainIDs())
	require.NotEmpty(t, g.Nodes())
	require.NotEmpty(t, g.Edges())

	// Three chains give six ordered (src, dst) pairs per bridgeable symbol.
	symbols := map[string]int{}
	for _, e := range g.Edges() {
		symbols[e.Token]++
	}
	for sym, n := range symbols {
		assert.Equal(t, 6, n, "symbol %s", sym)
	}

	// WETH, USDC, USDT, DAI, WBTC are registered on all three chains.
	assert.Len(t, symbols, 5)
}

func TestBuildEdgesCarryAddresses(t *testing.T) {
	g := Build([]int64{137, 1})

	for _, e := range g.Edges() {
		assert.NotEmpty(t, e.TokenAddrSrc, "edge %+v", e)
		assert.NotEmpty(t, e.TokenAddrDst, "edge %+v", e)
		assert.NotEqual(t, e.SrcChain, e.DstChain)
	}
}

func TestBuildPartialCoverageEdges(t *testing.T) {
	// Base carries neither USDT nor WBTC; both are still bridgeable between
	// Polygon and Optimism, so they get the 137<->10 pair and nothing else.
	g := Build([]int64{10, 137, 8453})

	perSymbol := map[string]int{}
	for _, e := range g.Edges() {
		perSymbol[e.Token]++
		if e.Token == "WBTC" || e.Token == "USDT" {
			assert.NotEqual(t, int64(8453), e.SrcChain, "edge %+v", e)
			assert.NotEqual(t, int64(8453), e.DstChain, "edge %+v", e)
		}
	}

	assert.Equal(t, 6, perSymbol["USDC"], "three carriers, six ordered pairs")
	assert.Equal(t, 2, perSymbol["WBTC"], "two carriers, two ordered pairs")
	assert.Equal(t, 2, perSymbol["USDT"])
}

func TestBuildSingleChainHasNoEdges(t *testing.T) {
	g := Build([]int64{137})

	assert.NotEmpty(t, g.Nodes())
	assert.Empty(t, g.Edges())
}

func TestEdgesFrom(t *testing.T) {
	g := Build([]int64{137, 1, 42161})

	for _, e := range g.EdgesFrom(137) {
		assert.Equal(t, int64(137), e.SrcChain)
	}
	// Each of the 5 shared symbols has 2 edges leaving Polygon.
	assert.Len(t, g.EdgesFrom(137), 10)
}
