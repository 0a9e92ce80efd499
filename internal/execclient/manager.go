package execclient

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/apexomega/titan/internal/domain"
)

// retryBackoff is the fixed delay between submission attempts. The service is
// local or same-rack; if it does not answer quickly, waiting longer will not
// help.
const retryBackoff = time.Second

// ManagerStats are the manager's lifetime submission counters.
type ManagerStats struct {
	Sent      int64 `json:"sent"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Retried   int64 `json:"retried"`
}

// Manager wraps Client with bounded retries and submission accounting.
type Manager struct {
	client  *Client
	retries int
	log     *slog.Logger

	sent      atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
}

// NewManager creates a Manager. retries is the total number of attempts per
// signal, minimum 1.
func NewManager(client *Client, retries int, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if retries < 1 {
		retries = 1
	}
	return &Manager{
		client:  client,
		retries: retries,
		log:     log.With("component", "exec_manager"),
	}
}

// Submit sends the signal to the execution service, retrying both transport
// failures and explicit non-success responses up to the configured attempt
// count with a fixed backoff. Pre-flight rejections never reach the manager,
// so every failure seen here is transient in principle and worth another try.
// After the final attempt a non-success response is returned as-is with a nil
// error; a transport failure returns the last error.
func (m *Manager) Submit(ctx context.Context, signal *domain.TradeSignal) (*ExecResponse, error) {
	m.sent.Add(1)

	var (
		lastResp *ExecResponse
		lastErr  error
	)
	for attempt := 1; attempt <= m.retries; attempt++ {
		resp, err := m.client.Execute(ctx, signal)
		if err == nil && resp.Success {
			m.succeeded.Add(1)
			return resp, nil
		}
		lastResp, lastErr = resp, err

		if attempt < m.retries {
			m.retried.Add(1)
			if err != nil {
				m.log.Warn("submission failed, retrying",
					"trade_id", signal.ID,
					"attempt", attempt,
					"err", err)
			} else {
				m.log.Warn("service reported failure, retrying",
					"trade_id", signal.ID,
					"attempt", attempt,
					"error", resp.ErrorMsg)
			}
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				m.failed.Add(1)
				return nil, ctx.Err()
			}
		}
	}

	m.failed.Add(1)
	if lastErr != nil {
		m.log.Error("submission exhausted retries", "trade_id", signal.ID, "attempts", m.retries, "err", lastErr)
		return nil, lastErr
	}
	m.log.Error("submission exhausted retries", "trade_id", signal.ID, "attempts", m.retries, "error", lastResp.ErrorMsg)
	return lastResp, nil
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() ManagerStats {
	return ManagerStats{
		Sent:      m.sent.Load(),
		Succeeded: m.succeeded.Load(),
		Failed:    m.failed.Load(),
		Retried:   m.retried.Load(),
	}
}
