package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apexomega/titan/internal/domain"
)

// Trade history lists, capped so an always-on scanner cannot grow them
// unbounded.
const (
	paperTradesKey = "paper_trades"
	liveTradesKey  = "live_trades"
	tradeLogMaxLen = 10_000
)

// LogEntry is the JSON shape stored per executed trade.
type LogEntry struct {
	TradeID         string    `json:"trade_id"`
	ChainID         int64     `json:"chainId"`
	Token           string    `json:"token"`
	Amount          string    `json:"amount"`
	Status          string    `json:"status"`
	TxHash          string    `json:"tx_hash,omitempty"`
	ExpectedProfit  float64   `json:"expected_profit"`
	NetProfit       float64   `json:"net_profit"`
	Error           string    `json:"error,omitempty"`
	ExecutedAt      time.Time `json:"executed_at"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// TradeLog implements domain.TradeLog over two capped Redis lists, one per
// execution mode.
type TradeLog struct {
	rdb *redis.Client
}

// NewTradeLog creates a TradeLog backed by the given Client.
func NewTradeLog(c *Client) *TradeLog {
	return &TradeLog{rdb: c.Underlying()}
}

// Append records one execution result under the list for its mode.
func (t *TradeLog) Append(ctx context.Context, result *domain.ExecutionResult, signal *domain.TradeSignal) error {
	key := liveTradesKey
	if result.IsPaper {
		key = paperTradesKey
	}

	entry := LogEntry{
		TradeID:    result.TradeID,
		Status:     string(result.Status),
		TxHash:     result.TxHash,
		NetProfit:  result.NetProfit,
		Error:      result.Error,
		ExecutedAt: result.Timestamp,
	}
	if signal != nil {
		entry.ChainID = signal.ChainID
		entry.Token = signal.Token
		entry.Amount = signal.Amount
		entry.ExpectedProfit = signal.ExpectedProfitUSD
		entry.ConfidenceScore = signal.Confidence
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis: marshal trade log entry: %w", err)
	}

	pipe := t.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, -tradeLogMaxLen, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: append %s: %w", key, err)
	}
	return nil
}

// Recent returns up to count most-recent entries from the paper or live list.
func (t *TradeLog) Recent(ctx context.Context, paper bool, count int64) ([]LogEntry, error) {
	key := liveTradesKey
	if paper {
		key = paperTradesKey
	}

	raw, err := t.rdb.LRange(ctx, key, -count, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lrange %s: %w", key, err)
	}

	entries := make([]LogEntry, 0, len(raw))
	for _, r := range raw {
		var e LogEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Compile-time interface check.
var _ domain.TradeLog = (*TradeLog)(nil)
