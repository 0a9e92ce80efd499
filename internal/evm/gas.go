package evm

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/apexomega/titan/internal/domain"
)

// gasCacheTTL bounds how stale a cached gas quote may be. Gas moves fast
// enough that anything older is worthless for profit math.
const gasCacheTTL = 5 * time.Second

// backendSource resolves chainID to a Backend. Satisfied by *Provider.
type backendSource interface {
	Backend(ctx context.Context, chainID int64) (Backend, error)
}

type cachedGas struct {
	price   domain.GasPrice
	fetched time.Time
}

// GasCache implements domain.GasSource with a short per-chain TTL cache so a
// scan cycle fanning out over many pairs hits the RPC once per chain.
type GasCache struct {
	source backendSource
	log    *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	cache map[int64]cachedGas
}

// NewGasCache wraps a backend source in a TTL cache.
func NewGasCache(source backendSource, log *slog.Logger) *GasCache {
	if log == nil {
		log = slog.Default()
	}
	return &GasCache{
		source: source,
		log:    log.With("component", "gas_cache"),
		now:    time.Now,
		cache:  make(map[int64]cachedGas),
	}
}

// GasPrice returns the current gas price for chainID, serving from cache when
// the entry is younger than the TTL.
func (g *GasCache) GasPrice(ctx context.Context, chainID int64) (domain.GasPrice, error) {
	g.mu.Lock()
	if c, ok := g.cache[chainID]; ok && g.now().Sub(c.fetched) < gasCacheTTL {
		g.mu.Unlock()
		return c.price, nil
	}
	g.mu.Unlock()

	backend, err := g.source.Backend(ctx, chainID)
	if err != nil {
		return domain.GasPrice{}, err
	}
	wei, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return domain.GasPrice{}, err
	}

	price := domain.GasPrice{
		ChainID: chainID,
		Wei:     wei.Uint64(),
		Gwei:    weiToGwei(wei),
	}

	g.mu.Lock()
	g.cache[chainID] = cachedGas{price: price, fetched: g.now()}
	g.mu.Unlock()

	g.log.Debug("gas price refreshed", "chain_id", chainID, "gwei", price.Gwei)
	return price, nil
}

func weiToGwei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}
