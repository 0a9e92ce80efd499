package executor

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/apexomega/titan/internal/chain"
	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/keys"
)

// Deps are the collaborators an executor may need. Paper mode tolerates nil
// bus and pending set; live and hybrid do not.
type Deps struct {
	Registry *chain.Registry
	Pending  domain.PendingTxSet
	Bus      domain.SignalBus
	TradeLog domain.TradeLog
	Log      *slog.Logger
}

// New builds the executor selected by cfg.Execution.Mode.
func New(cfg *config.Config, deps Deps) (Executor, error) {
	liveCfg := LiveConfig{
		MinProfitUSD:     cfg.Execution.MinProfitUSD,
		MaxSlippageBps:   cfg.Execution.MaxSlippageBps,
		MaxConcurrentTxs: cfg.Execution.MaxConcurrentTxs,
		PrivateKey:       resolveSigningKey(cfg, deps.Log),
	}

	switch strings.ToLower(cfg.Execution.Mode) {
	case "paper":
		return NewPaper(cfg.Execution.PaperBalanceUSD, deps.TradeLog, deps.Log), nil
	case "live":
		if deps.Bus == nil || deps.Pending == nil {
			return nil, fmt.Errorf("executor: live mode requires signal bus and pending set")
		}
		return NewLive(liveCfg, deps.Registry, deps.Pending, deps.Bus, deps.TradeLog, deps.Log), nil
	case "hybrid":
		if deps.Bus == nil || deps.Pending == nil {
			return nil, fmt.Errorf("executor: hybrid mode requires signal bus and pending set")
		}
		live := NewLive(liveCfg, deps.Registry, deps.Pending, deps.Bus, deps.TradeLog, deps.Log)
		paper := NewPaper(cfg.Execution.PaperBalanceUSD, deps.TradeLog, deps.Log)
		return NewHybrid(live, paper, cfg.Execution.ConfidenceThreshold, deps.Log), nil
	default:
		return nil, fmt.Errorf("executor: unknown mode %q", cfg.Execution.Mode)
	}
}

// resolveSigningKey resolves the wallet signing key, decrypting a key file if
// one is configured. A failed resolution leaves the configured raw value in
// place so pre-flight validation reports the problem per trade instead of
// blocking construction.
func resolveSigningKey(cfg *config.Config, log *slog.Logger) string {
	resolved, err := keys.Resolve(keys.FromWallet(cfg.Wallet))
	if err != nil {
		if log != nil {
			log.Warn("signing key not resolved", "error", err)
		}
		return cfg.Wallet.PrivateKey
	}
	return "0x" + resolved
}
