package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/apexomega/titan/internal/domain"
)

// signalChannel is the Pub/Sub channel the external execution service
// subscribes to.
const signalChannel = "trade_signals"

// SignalBus implements domain.SignalBus over Redis Pub/Sub. Signals are
// serialized as JSON; the payload shape is the wire contract with the
// execution service and must not change shape silently.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish serializes the signal and sends it on the trade_signals channel.
func (sb *SignalBus) Publish(ctx context.Context, signal *domain.TradeSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("redis: marshal signal %s: %w", signal.ID, err)
	}
	if err := sb.rdb.Publish(ctx, signalChannel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrBusUnavailable, signalChannel, err)
	}
	return nil
}

// Subscribe returns a channel of raw signal payloads from the trade_signals
// channel. The subscription closes when the context is cancelled. Used by the
// local execution client when it relays bus traffic instead of HTTP.
func (sb *SignalBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := sb.rdb.Subscribe(ctx, signalChannel)

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", signalChannel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
