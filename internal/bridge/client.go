// Package bridge quotes cross-chain transfers through a LI.FI-compatible
// route aggregator.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/tokens"
)

// Client implements domain.BridgeRouter against the aggregator's /quote
// endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// New creates a bridge client. timeout bounds each quote request.
func New(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "bridge_client"),
	}
}

// quoteResponse mirrors the aggregator's quote payload. Only the fields the
// profit math needs are decoded.
type quoteResponse struct {
	Tool     string `json:"tool"`
	Estimate struct {
		ToAmount string `json:"toAmount"`
		FeeCosts []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"feeCosts"`
		GasCosts []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"gasCosts"`
	} `json:"estimate"`
	TransactionRequest struct {
		Data string `json:"data"`
	} `json:"transactionRequest"`
}

// BestRoute returns the aggregator's best route for moving amount of token
// from srcChain to dstChain.
func (c *Client) BestRoute(ctx context.Context, srcChain, dstChain int64, token string, amount *big.Int) (*domain.BridgeRoute, error) {
	q := url.Values{}
	q.Set("fromChain", strconv.FormatInt(srcChain, 10))
	q.Set("toChain", strconv.FormatInt(dstChain, 10))
	q.Set("fromToken", tokens.Address(srcChain, token))
	q.Set("toToken", tokens.Address(dstChain, token))
	q.Set("fromAmount", amount.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-lifi-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge: quote %d->%d %s: %w", srcChain, dstChain, token, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("bridge: read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bridge: quote %d->%d %s: status %d: %s", srcChain, dstChain, token, resp.StatusCode, body)
	}

	var decoded quoteResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("bridge: decode quote response: %w", err)
	}

	route := &domain.BridgeRoute{
		Bridge:    decoded.Tool,
		EstOutput: decoded.Estimate.ToAmount,
		FeeUSD:    sumUSD(decoded.Estimate.FeeCosts) + sumUSD(decoded.Estimate.GasCosts),
		TxData:    []byte(decoded.TransactionRequest.Data),
	}
	c.log.Debug("bridge route quoted",
		"src_chain", srcChain,
		"dst_chain", dstChain,
		"token", token,
		"bridge", route.Bridge,
		"fee_usd", route.FeeUSD)
	return route, nil
}

func sumUSD(costs []struct {
	AmountUSD string `json:"amountUSD"`
}) float64 {
	var total float64
	for _, c := range costs {
		if v, err := strconv.ParseFloat(c.AmountUSD, 64); err == nil {
			total += v
		}
	}
	return total
}

// Compile-time interface check.
var _ domain.BridgeRouter = (*Client)(nil)
