// Package tokens holds the static per-chain token registry used to seed the
// opportunity graph. Addresses are checksummed mainnet deployments.
package tokens

import (
	"fmt"
	"sort"

	"github.com/apexomega/titan/internal/domain"
)

// registry maps chain id -> symbol -> token metadata.
var registry = map[int64]map[string]domain.TokenInfo{
	1: {
		"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, IsWrappedNative: true, IsBridgeable: true},
		"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"USDT": {Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18, IsStablecoin: true, IsBridgeable: true},
		"WBTC": {Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8, IsBridgeable: true},
	},
	137: {
		"WPOL": {Symbol: "WPOL", Name: "Wrapped POL", Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18, IsWrappedNative: true},
		"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18, IsBridgeable: true},
		"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"USDT": {Symbol: "USDT", Name: "Tether USD", Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063", Decimals: 18, IsStablecoin: true, IsBridgeable: true},
		"WBTC": {Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6", Decimals: 8, IsBridgeable: true},
	},
	42161: {
		"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Decimals: 18, IsWrappedNative: true, IsBridgeable: true},
		"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"USDT": {Symbol: "USDT", Name: "Tether USD", Address: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Decimals: 18, IsStablecoin: true, IsBridgeable: true},
		"WBTC": {Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f", Decimals: 8, IsBridgeable: true},
	},
	8453: {
		"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Address: "0x4200000000000000000000000000000000000006", Decimals: 18, IsWrappedNative: true, IsBridgeable: true},
		"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18, IsStablecoin: true, IsBridgeable: true},
	},
	10: {
		"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Address: "0x4200000000000000000000000000000000000006", Decimals: 18, IsWrappedNative: true, IsBridgeable: true},
		"USDC": {Symbol: "USDC", Name: "USD Coin", Address: "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"USDT": {Symbol: "USDT", Name: "Tether USD", Address: "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58", Decimals: 6, IsStablecoin: true, IsBridgeable: true},
		"DAI":  {Symbol: "DAI", Name: "Dai Stablecoin", Address: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1", Decimals: 18, IsStablecoin: true, IsBridgeable: true},
		"WBTC": {Symbol: "WBTC", Name: "Wrapped BTC", Address: "0x68f180fcCe6836688e9084f035309E29Bf0A2095", Decimals: 8, IsBridgeable: true},
	},
}

// ForChain returns the tokens registered for a chain, sorted by symbol.
func ForChain(chainID int64) []domain.TokenInfo {
	m, ok := registry[chainID]
	if !ok {
		return nil
	}
	out := make([]domain.TokenInfo, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Lookup returns the token with the given symbol on a chain.
func Lookup(chainID int64, symbol string) (domain.TokenInfo, error) {
	t, ok := registry[chainID][symbol]
	if !ok {
		return domain.TokenInfo{}, fmt.Errorf("token %s not registered on chain %d", symbol, chainID)
	}
	return t, nil
}

// Address returns the contract address of symbol on chainID, or an empty
// string when not registered.
func Address(chainID int64, symbol string) string {
	return registry[chainID][symbol].Address
}

// Decimals returns the decimal count of symbol on chainID, defaulting to 18
// when the token is unknown.
func Decimals(chainID int64, symbol string) int {
	if t, ok := registry[chainID][symbol]; ok {
		return t.Decimals
	}
	return 18
}

// IsStablecoin reports whether symbol on chainID is a dollar stablecoin.
func IsStablecoin(chainID int64, symbol string) bool {
	return registry[chainID][symbol].IsStablecoin
}

// WrappedNative returns the wrapped native asset of a chain.
func WrappedNative(chainID int64) (domain.TokenInfo, error) {
	for _, t := range registry[chainID] {
		if t.IsWrappedNative {
			return t, nil
		}
	}
	return domain.TokenInfo{}, fmt.Errorf("no wrapped native token registered on chain %d", chainID)
}

// FetchAllChains returns the full token tables for the given chains. The
// inner maps are copies; callers may mutate them freely.
func FetchAllChains(chainIDs []int64) map[int64]map[string]domain.TokenInfo {
	out := make(map[int64]map[string]domain.TokenInfo, len(chainIDs))
	for _, id := range chainIDs {
		src, ok := registry[id]
		if !ok {
			continue
		}
		m := make(map[string]domain.TokenInfo, len(src))
		for sym, t := range src {
			m[sym] = t
		}
		out[id] = m
	}
	return out
}

// BridgeableSymbols returns the symbols marked bridgeable that are registered
// on at least two of the given chains. A bridge needs both ends; a symbol
// carried by only one chain forms no edges, and an unmarked symbol forms none
// however many chains carry it.
func BridgeableSymbols(chainIDs []int64) []string {
	if len(chainIDs) < 2 {
		return nil
	}
	counts := map[string]int{}
	for _, id := range chainIDs {
		for sym, t := range registry[id] {
			if t.IsBridgeable {
				counts[sym]++
			}
		}
	}
	var out []string
	for sym, n := range counts {
		if n >= 2 {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// ChainsWith returns the subset of chainIDs on which symbol is registered,
// preserving the input order.
func ChainsWith(symbol string, chainIDs []int64) []int64 {
	var out []int64
	for _, id := range chainIDs {
		if _, ok := registry[id][symbol]; ok {
			out = append(out, id)
		}
	}
	return out
}
