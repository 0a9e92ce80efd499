// Package evm provides per-chain JSON-RPC access: client pooling, gas price
// caching, and on-chain reads used by the scanner.
package evm

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/apexomega/titan/internal/chain"
)

// Backend is the subset of ethclient.Client the scanner needs. Tests swap in
// a mock.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Provider lazily dials and caches one JSON-RPC client per active chain.
type Provider struct {
	registry *chain.Registry
	log      *slog.Logger

	mu      sync.Mutex
	clients map[int64]*ethclient.Client
}

// NewProvider creates a Provider over the registry's active chains. No
// connections are opened until the first Backend call.
func NewProvider(registry *chain.Registry, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{
		registry: registry,
		log:      log.With("component", "evm_provider"),
		clients:  make(map[int64]*ethclient.Client),
	}
}

// Backend returns the JSON-RPC client for chainID, dialing on first use.
func (p *Provider) Backend(ctx context.Context, chainID int64) (Backend, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}

	entry, err := p.registry.Entry(chainID)
	if err != nil {
		return nil, err
	}
	if entry.RPCURL == "" {
		return nil, fmt.Errorf("chain %s has no rpc endpoint", entry.Desc.Name)
	}

	client, err := ethclient.DialContext(ctx, entry.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", entry.Desc.Name, err)
	}
	p.clients[chainID] = client
	p.log.Info("rpc client connected", "chain", entry.Desc.Name, "chain_id", chainID)
	return client, nil
}

// ProbeBlock fetches the latest block number for chainID. Used by readiness
// checks to verify an endpoint is live.
func (p *Provider) ProbeBlock(ctx context.Context, chainID int64) (uint64, error) {
	b, err := p.Backend(ctx, chainID)
	if err != nil {
		return 0, err
	}
	return b.BlockNumber(ctx)
}

// Close releases every dialed client.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
