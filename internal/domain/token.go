package domain

// TokenInfo describes one token on one chain as listed in the static
// inventory. The zero address marks the chain's native asset.
type TokenInfo struct {
	Symbol          string
	Name            string
	Address         string
	Decimals        int
	IsNative        bool
	IsWrappedNative bool
	IsStablecoin    bool

	// IsBridgeable marks assets with canonical bridge liquidity. Only these
	// form cross-chain edges; sharing a symbol across chains is not enough.
	IsBridgeable bool
}

// TokenNode is a (chain, symbol) vertex in the opportunity graph. Nodes are
// created once at graph-build time and immutable thereafter.
type TokenNode struct {
	ChainID  int64
	Symbol   string
	Address  string
	Decimals int
}

// CrossChainEdge is the unit of work the scanner evaluates: a directed
// src -> dst hop for one bridgeable symbol. Weight is reserved for future
// cost-aware routing and stays zero.
type CrossChainEdge struct {
	SrcChain     int64
	DstChain     int64
	Token        string
	TokenAddrSrc string
	TokenAddrDst string
	Decimals     int
	Weight       float64
}
