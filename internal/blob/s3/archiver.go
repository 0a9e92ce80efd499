package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/apexomega/titan/internal/store/postgres"
)

// RecordSource provides the trade records to archive. Satisfied by
// *postgres.TradeRecordStore.
type RecordSource interface {
	Since(ctx context.Context, cutoff time.Time) ([]postgres.TradeRecord, error)
}

// Archiver snapshots recent trade history to object storage as JSONL, one
// object per archive run. Records stay in the primary store; the archive is
// for offline analysis, not truncation.
type Archiver struct {
	client *Client
	source RecordSource
	log    *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(client *Client, source RecordSource, log *slog.Logger) *Archiver {
	if log == nil {
		log = slog.Default()
	}
	return &Archiver{
		client: client,
		source: source,
		log:    log.With("component", "trade_archiver"),
	}
}

// Archive uploads every record executed at or after cutoff. The object key
// encodes the run date: trades/YYYY/MM/trades-YYYYMMDD-HHMMSS.jsonl. It
// returns the key and the number of records written; an empty window uploads
// nothing.
func (a *Archiver) Archive(ctx context.Context, cutoff time.Time) (string, int, error) {
	records, err := a.source.Since(ctx, cutoff)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: load records: %w", err)
	}
	if len(records) == 0 {
		return "", 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return "", 0, fmt.Errorf("s3blob: encode record %s: %w", r.TradeID, err)
		}
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("trades/%04d/%02d/trades-%s.jsonl",
		now.Year(), now.Month(), now.Format("20060102-150405"))

	_, err = a.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: put archive %s: %w", key, err)
	}

	a.log.Info("trade archive uploaded", "key", key, "records", len(records))
	return key, len(records), nil
}

// Run archives on the given interval until ctx is cancelled. Each run covers
// the window since the previous run.
func (a *Archiver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cutoff := last
			last = time.Now().UTC()
			if _, _, err := a.Archive(ctx, cutoff); err != nil {
				a.log.Error("archive run failed", "err", err)
			}
		}
	}
}
