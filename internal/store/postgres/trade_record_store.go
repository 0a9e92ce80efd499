package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexomega/titan/internal/domain"
)

// TradeRecord is one persisted execution outcome.
type TradeRecord struct {
	TradeID        string
	ChainID        int64
	Token          string
	Amount         string
	Status         domain.TradeStatus
	TxHash         string
	ExpectedProfit float64
	NetProfit      float64
	GasCost        float64
	Confidence     float64
	IsPaper        bool
	Error          string
	ExecutedAt     time.Time
}

// TradeRecordStore persists trade records. Inserts are idempotent per trade
// id so retried result deliveries never duplicate rows.
type TradeRecordStore struct {
	pool *pgxpool.Pool
}

// NewTradeRecordStore creates a store backed by the given connection pool.
func NewTradeRecordStore(pool *pgxpool.Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Insert writes one record, ignoring duplicates by trade id.
func (s *TradeRecordStore) Insert(ctx context.Context, r TradeRecord) error {
	const query = `
		INSERT INTO trade_records (
			trade_id, chain_id, token, amount, status, tx_hash,
			expected_profit, net_profit, gas_cost, confidence,
			is_paper, error, executed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13
		) ON CONFLICT (trade_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		r.TradeID, r.ChainID, r.Token, r.Amount, string(r.Status), nullable(r.TxHash),
		r.ExpectedProfit, r.NetProfit, r.GasCost, r.Confidence,
		r.IsPaper, nullable(r.Error), r.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade record %s: %w", r.TradeID, err)
	}
	return nil
}

// Append implements domain.TradeLog so the store can stand in for (or behind)
// the Redis trade log.
func (s *TradeRecordStore) Append(ctx context.Context, result *domain.ExecutionResult, signal *domain.TradeSignal) error {
	r := TradeRecord{
		TradeID:    result.TradeID,
		Status:     result.Status,
		TxHash:     result.TxHash,
		NetProfit:  result.NetProfit,
		IsPaper:    result.IsPaper,
		Error:      result.Error,
		ExecutedAt: result.Timestamp,
	}
	if r.ExecutedAt.IsZero() {
		r.ExecutedAt = time.Now().UTC()
	}
	if signal != nil {
		r.ChainID = signal.ChainID
		r.Token = signal.Token
		r.Amount = signal.Amount
		r.ExpectedProfit = signal.ExpectedProfitUSD
		r.GasCost = signal.GasCostUSD
		r.Confidence = signal.Confidence
	}
	if r.Amount == "" {
		r.Amount = "0"
	}
	return s.Insert(ctx, r)
}

const recordSelectCols = `trade_id, chain_id, token, amount, status, tx_hash,
	expected_profit, net_profit, gas_cost, confidence, is_paper, error, executed_at`

func scanRecordRows(rows pgx.Rows) ([]TradeRecord, error) {
	var records []TradeRecord
	for rows.Next() {
		var (
			r      TradeRecord
			status string
			txHash *string
			errMsg *string
		)
		if err := rows.Scan(
			&r.TradeID, &r.ChainID, &r.Token, &r.Amount, &status, &txHash,
			&r.ExpectedProfit, &r.NetProfit, &r.GasCost, &r.Confidence,
			&r.IsPaper, &errMsg, &r.ExecutedAt,
		); err != nil {
			return nil, err
		}
		r.Status = domain.TradeStatus(status)
		if txHash != nil {
			r.TxHash = *txHash
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Recent returns the most recent limit records, newest first.
func (s *TradeRecordStore) Recent(ctx context.Context, limit int) ([]TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+recordSelectCols+" FROM trade_records ORDER BY executed_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent trade records: %w", err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// Since returns records executed at or after the cutoff, for archival.
func (s *TradeRecordStore) Since(ctx context.Context, cutoff time.Time) ([]TradeRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+recordSelectCols+" FROM trade_records WHERE executed_at >= $1 ORDER BY executed_at",
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: trade records since %s: %w", cutoff, err)
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

// TotalPnL sums realized profit, split by mode.
func (s *TradeRecordStore) TotalPnL(ctx context.Context, paper bool) (float64, error) {
	var total *float64
	err := s.pool.QueryRow(ctx,
		"SELECT SUM(net_profit) FROM trade_records WHERE is_paper = $1", paper,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: total pnl: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time interface check.
var _ domain.TradeLog = (*TradeRecordStore)(nil)
