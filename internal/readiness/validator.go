// Package readiness runs startup validation before the scanner goes live:
// execution mode, wallet, executor contracts, safety parameters, per-chain
// RPC health, Redis, and the external execution service.
package readiness

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
)

// probeTimeout bounds each individual connectivity probe so a dead endpoint
// cannot stall startup.
const probeTimeout = 10 * time.Second

// BlockProber fetches the latest block number of a chain, proving the RPC
// endpoint is reachable and synced.
type BlockProber interface {
	ProbeBlock(ctx context.Context, chainID int64) (uint64, error)
}

// Pinger checks cache connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceProber checks the external execution service. Implementations return
// an error when the service is unreachable or reports itself unhealthy.
type ServiceProber interface {
	Probe(ctx context.Context) error
}

// Check is one validation result. Fatal checks block startup when they fail;
// non-fatal failures are reported but the system may continue degraded.
type Check struct {
	Name   string
	OK     bool
	Fatal  bool
	Detail string
}

// ChainHealth is the probe result for one whitelisted chain.
type ChainHealth struct {
	ChainID int64
	Name    string
	State   domain.ExecutionState
	Block   uint64
	Healthy bool
	Err     string
}

// Report is the full readiness report. Ready is true only when every fatal
// check passed.
type Report struct {
	Mode   string
	Checks []Check
	Chains []ChainHealth
	Ready  bool
}

// Validator wires the probes together. Redis and Service may be nil when the
// corresponding subsystem is not configured; the matching checks are skipped.
type Validator struct {
	cfg      config.Config
	registry *chain.Registry
	prober   BlockProber
	redis    Pinger
	service  ServiceProber
	log      *slog.Logger
}

func New(cfg config.Config, registry *chain.Registry, prober BlockProber, redis Pinger, service ServiceProber, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		cfg:      cfg,
		registry: registry,
		prober:   prober,
		redis:    redis,
		service:  service,
		log:      log.With("component", "readiness"),
	}
}

// Validate runs every check and returns the report. It never returns early:
// the operator gets the complete picture even when the first check fails.
func (v *Validator) Validate(ctx context.Context) *Report {
	mode := strings.ToLower(v.cfg.Execution.Mode)
	rep := &Report{Mode: mode}

	rep.Checks = append(rep.Checks, v.checkMode(mode))
	rep.Checks = append(rep.Checks, v.checkWallet(mode))
	rep.Checks = append(rep.Checks, v.checkExecutors(mode))
	rep.Checks = append(rep.Checks, v.checkSafetyParams())
	rep.Chains = v.probeChains(ctx)
	rep.Checks = append(rep.Checks, v.checkPrimaryChain(rep.Chains))
	if v.redis != nil {
		rep.Checks = append(rep.Checks, v.checkRedis(ctx))
	}
	if v.service != nil {
		rep.Checks = append(rep.Checks, v.checkService(ctx))
	}

	rep.Ready = true
	for _, c := range rep.Checks {
		if c.Fatal && !c.OK {
			rep.Ready = false
		}
	}

	v.logReport(rep)
	return rep
}

func (v *Validator) checkMode(mode string) Check {
	switch mode {
	case "paper", "live", "hybrid":
		return Check{Name: "execution_mode", OK: true, Fatal: true, Detail: mode}
	default:
		return Check{Name: "execution_mode", OK: false, Fatal: true,
			Detail: fmt.Sprintf("invalid mode %q (want paper, live or hybrid)", mode)}
	}
}

// checkWallet validates the signing key format. Paper mode carries no key.
func (v *Validator) checkWallet(mode string) Check {
	if mode == "paper" {
		return Check{Name: "wallet", OK: true, Detail: "paper mode, no signing key required"}
	}

	key := v.cfg.Wallet.PrivateKey
	switch {
	case key == "" && v.cfg.Wallet.EncryptedKeyPath != "":
		return Check{Name: "wallet", OK: true, Fatal: true, Detail: "encrypted key file configured"}
	case key == "":
		return Check{Name: "wallet", OK: false, Fatal: true, Detail: "no private key configured"}
	case key == config.PlaceholderPrivateKey:
		return Check{Name: "wallet", OK: false, Fatal: true, Detail: "private key is still the placeholder value"}
	}

	hexPart := strings.TrimPrefix(key, "0x")
	if len(hexPart) != 64 {
		return Check{Name: "wallet", OK: false, Fatal: true,
			Detail: fmt.Sprintf("private key must be 64 hex characters, got %d", len(hexPart))}
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return Check{Name: "wallet", OK: false, Fatal: true, Detail: "private key contains non-hex characters"}
	}
	return Check{Name: "wallet", OK: true, Fatal: true, Detail: "private key format valid"}
}

// checkExecutors verifies every ENABLED chain carries a deployed executor
// contract address. The registry already demotes chains missing one, so a
// failure here means the address is present but still the placeholder.
func (v *Validator) checkExecutors(mode string) Check {
	if mode == "paper" {
		return Check{Name: "executor_contracts", OK: true, Detail: "paper mode, contracts not required"}
	}
	for _, e := range v.registry.All() {
		if e.State != domain.ExecutionEnabled {
			continue
		}
		if e.Executor == config.PlaceholderExecutorAddress {
			return Check{Name: "executor_contracts", OK: false, Fatal: true,
				Detail: fmt.Sprintf("%s executor address is still the placeholder value", e.Desc.Name)}
		}
	}
	return Check{Name: "executor_contracts", OK: true, Fatal: true, Detail: "all enabled chains have executor contracts"}
}

func (v *Validator) checkSafetyParams() Check {
	ex := v.cfg.Execution
	switch {
	case ex.MinProfitUSD < 0:
		return Check{Name: "safety_params", OK: false, Fatal: true, Detail: "min_profit_usd cannot be negative"}
	case ex.MaxSlippageBps < 0 || ex.MaxSlippageBps > 10_000:
		return Check{Name: "safety_params", OK: false, Fatal: true, Detail: "max_slippage_bps out of range (0-10000)"}
	case ex.MaxConcurrentTxs <= 0:
		return Check{Name: "safety_params", OK: false, Fatal: true, Detail: "max_concurrent_txs must be positive"}
	}
	return Check{Name: "safety_params", OK: true, Fatal: true,
		Detail: fmt.Sprintf("min profit $%.2f, max slippage %d bps, max in-flight %d",
			ex.MinProfitUSD, ex.MaxSlippageBps, ex.MaxConcurrentTxs)}
}

// probeChains fetches the latest block from every non-disabled chain.
func (v *Validator) probeChains(ctx context.Context) []ChainHealth {
	var out []ChainHealth
	for _, e := range v.registry.All() {
		h := ChainHealth{ChainID: e.Desc.ChainID, Name: e.Desc.Name, State: e.State}
		if e.State == domain.ExecutionDisabled {
			h.Err = "disabled"
			out = append(out, h)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		block, err := v.prober.ProbeBlock(probeCtx, e.Desc.ChainID)
		cancel()
		if err != nil {
			h.Err = err.Error()
			v.log.Warn("chain rpc unhealthy", "chain", e.Desc.Name, "chain_id", e.Desc.ChainID, "error", err)
		} else {
			h.Healthy = true
			h.Block = block
		}
		out = append(out, h)
	}
	return out
}

// checkPrimaryChain is the fatal gate: the one chain cleared for execution
// must have a healthy RPC or the system cannot operate at all. Unhealthy
// secondary chains only narrow the scan surface.
func (v *Validator) checkPrimaryChain(chains []ChainHealth) Check {
	primary := v.cfg.Scanner.PrimaryChainID
	for _, h := range chains {
		if h.ChainID != primary {
			continue
		}
		if h.Healthy {
			return Check{Name: "primary_chain_rpc", OK: true, Fatal: true,
				Detail: fmt.Sprintf("%s at block %d", h.Name, h.Block)}
		}
		return Check{Name: "primary_chain_rpc", OK: false, Fatal: true,
			Detail: fmt.Sprintf("%s rpc unhealthy: %s", h.Name, h.Err)}
	}
	return Check{Name: "primary_chain_rpc", OK: false, Fatal: true,
		Detail: fmt.Sprintf("primary chain %d not in whitelist", primary)}
}

func (v *Validator) checkRedis(ctx context.Context) Check {
	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := v.redis.Ping(pingCtx); err != nil {
		return Check{Name: "redis", OK: false, Fatal: true, Detail: err.Error()}
	}
	return Check{Name: "redis", OK: true, Fatal: true, Detail: "connected"}
}

// checkService probes the external execution service. Not fatal: the scanner
// can run paper-only while the service is down.
func (v *Validator) checkService(ctx context.Context) Check {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := v.service.Probe(probeCtx); err != nil {
		return Check{Name: "execution_service", OK: false, Detail: err.Error()}
	}
	return Check{Name: "execution_service", OK: true, Detail: "healthy"}
}

func (v *Validator) logReport(rep *Report) {
	for _, c := range rep.Checks {
		if c.OK {
			v.log.Info("readiness check passed", "check", c.Name, "detail", c.Detail)
		} else if c.Fatal {
			v.log.Error("readiness check failed", "check", c.Name, "detail", c.Detail)
		} else {
			v.log.Warn("readiness check degraded", "check", c.Name, "detail", c.Detail)
		}
	}
	for _, h := range rep.Chains {
		if h.Healthy {
			v.log.Info("chain healthy", "chain", h.Name, "chain_id", h.ChainID, "state", string(h.State), "block", h.Block)
		} else {
			v.log.Warn("chain unavailable", "chain", h.Name, "chain_id", h.ChainID, "state", string(h.State), "error", h.Err)
		}
	}
	if rep.Ready {
		v.log.Info("system ready", "mode", rep.Mode)
	} else {
		v.log.Error("system not ready", "mode", rep.Mode)
	}
}
