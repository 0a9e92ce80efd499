// Package execclient talks to the external execution service that signs and
// broadcasts trades. The scanner never holds a hot key itself; everything
// irreversible happens on the other side of this client.
package execclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/apexomega/titan/internal/domain"
)

// Client is an HTTP client for the execution service REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a Client for the service at host:port.
func NewClient(host string, port int, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "exec_client"),
	}
}

// HealthStatus is the service's self-reported state.
type HealthStatus struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	ChainID   int64  `json:"chainId,omitempty"`
}

// ExecResponse is the service's reply to an execute or simulate request.
type ExecResponse struct {
	Success  bool    `json:"success"`
	TxHash   string  `json:"tx_hash,omitempty"`
	Status   string  `json:"status,omitempty"`
	Profit   float64 `json:"profit,omitempty"`
	GasUsed  uint64  `json:"gas_used,omitempty"`
	ErrorMsg string  `json:"error,omitempty"`
}

// ServiceStats are the service's lifetime execution counters.
type ServiceStats struct {
	Executed  int64   `json:"executed"`
	Succeeded int64   `json:"succeeded"`
	Failed    int64   `json:"failed"`
	TotalPnL  float64 `json:"total_pnl"`
}

// Health checks the service's /health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute submits one trade signal for live execution.
func (c *Client) Execute(ctx context.Context, signal *domain.TradeSignal) (*ExecResponse, error) {
	var out ExecResponse
	if err := c.do(ctx, http.MethodPost, "/execute", signal, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteBatch submits several signals in one request. Results come back in
// signal order.
func (c *Client) ExecuteBatch(ctx context.Context, signals []*domain.TradeSignal) ([]ExecResponse, error) {
	req := struct {
		Signals []*domain.TradeSignal `json:"signals"`
	}{Signals: signals}

	var out struct {
		Results []ExecResponse `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/execute/batch", req, &out); err != nil {
		return nil, err
	}
	if len(out.Results) != len(signals) {
		return nil, fmt.Errorf("execclient: batch returned %d results for %d signals", len(out.Results), len(signals))
	}
	return out.Results, nil
}

// Simulate dry-runs a signal on the service without broadcasting.
func (c *Client) Simulate(ctx context.Context, signal *domain.TradeSignal) (*ExecResponse, error) {
	var out ExecResponse
	if err := c.do(ctx, http.MethodPost, "/simulate", signal, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches the service's execution counters.
func (c *Client) Stats(ctx context.Context) (*ServiceStats, error) {
	var out ServiceStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("execclient: marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("execclient: build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrNotConnected, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("execclient: read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("execclient: %s: status %d: %s", path, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("execclient: decode %s response: %w", path, err)
		}
	}
	return nil
}
