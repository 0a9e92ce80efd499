package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/apexomega/titan/internal/domain"
)

// pendingSetKey is the shared set of in-flight transaction ids. Every process
// in the deployment counts against the same set.
const pendingSetKey = "pending_txs"

// PendingTxSet implements domain.PendingTxSet over a Redis set.
type PendingTxSet struct {
	rdb *redis.Client
}

// NewPendingTxSet creates a PendingTxSet backed by the given Client.
func NewPendingTxSet(c *Client) *PendingTxSet {
	return &PendingTxSet{rdb: c.Underlying()}
}

// Add registers txID as in flight.
func (p *PendingTxSet) Add(ctx context.Context, txID string) error {
	if err := p.rdb.SAdd(ctx, pendingSetKey, txID).Err(); err != nil {
		return fmt.Errorf("redis: sadd %s: %w", pendingSetKey, err)
	}
	return nil
}

// Remove clears txID once its transaction resolves.
func (p *PendingTxSet) Remove(ctx context.Context, txID string) error {
	if err := p.rdb.SRem(ctx, pendingSetKey, txID).Err(); err != nil {
		return fmt.Errorf("redis: srem %s: %w", pendingSetKey, err)
	}
	return nil
}

// Count returns the number of in-flight transactions.
func (p *PendingTxSet) Count(ctx context.Context) (int64, error) {
	n, err := p.rdb.SCard(ctx, pendingSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: scard %s: %w", pendingSetKey, err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.PendingTxSet = (*PendingTxSet)(nil)
