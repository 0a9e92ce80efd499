// Package chain maintains the whitelist of supported chains and the execution
// state of each. The whitelist is fixed at build time; configuration decides
// which entries are reachable, never which entries exist.
package chain

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/apexomega/titan/internal/config"
	"github.com/apexomega/titan/internal/domain"
)

// whitelist enumerates every chain the system will ever touch, together with
// the execution state it is allowed to reach. Polygon is the only chain
// cleared for live execution; Ethereum and Arbitrum are scanned but never
// executed against. A chain absent from this table is ignored no matter what
// configuration says.
var whitelist = []struct {
	desc  domain.ChainDescriptor
	state domain.ExecutionState
}{
	{domain.ChainDescriptor{ChainID: 137, Name: "polygon", NativeSymbol: "POL"}, domain.ExecutionEnabled},
	{domain.ChainDescriptor{ChainID: 1, Name: "ethereum", NativeSymbol: "ETH"}, domain.ExecutionConfigured},
	{domain.ChainDescriptor{ChainID: 42161, Name: "arbitrum", NativeSymbol: "ETH"}, domain.ExecutionConfigured},
}

// Entry is one resolved chain: its descriptor, effective state, and endpoints.
type Entry struct {
	Desc     domain.ChainDescriptor
	State    domain.ExecutionState
	RPCURL   string
	WSSURL   string
	Executor string
}

// Registry resolves chain ids to entries. It is immutable after construction:
// a chain's state can be demoted at build time (missing RPC, local endpoint)
// but can never be escalated afterwards.
type Registry struct {
	entries map[int64]*Entry
	log     *slog.Logger
}

// NewRegistry builds the registry from the chains configuration. Whitelisted
// chains without a usable RPC endpoint are demoted to DISABLED; an ENABLED
// chain additionally needs an executor contract address or it is demoted to
// CONFIGURED.
func NewRegistry(cfg config.ChainsConfig, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "chain_registry")

	r := &Registry{entries: make(map[int64]*Entry, len(whitelist))}
	for _, w := range whitelist {
		e := &Entry{
			Desc:     w.desc,
			State:    w.state,
			RPCURL:   cfg.RPC[w.desc.Name],
			WSSURL:   cfg.WSS[w.desc.Name],
			Executor: cfg.Executors[w.desc.Name],
		}
		switch {
		case e.RPCURL == "":
			e.State = domain.ExecutionDisabled
			log.Warn("chain disabled: no rpc endpoint", "chain", w.desc.Name, "chain_id", w.desc.ChainID)
		case isLocalEndpoint(e.RPCURL):
			e.State = domain.ExecutionDisabled
			e.RPCURL = ""
			log.Warn("chain disabled: localhost rpc rejected", "chain", w.desc.Name, "chain_id", w.desc.ChainID)
		case !hasNetworkScheme(e.RPCURL):
			e.State = domain.ExecutionDisabled
			e.RPCURL = ""
			log.Warn("chain disabled: rpc url lacks a network scheme", "chain", w.desc.Name, "chain_id", w.desc.ChainID)
		case e.State == domain.ExecutionEnabled && e.Executor == "":
			e.State = domain.ExecutionConfigured
			log.Warn("chain demoted to configured: no executor address", "chain", w.desc.Name, "chain_id", w.desc.ChainID)
		}
		r.entries[w.desc.ChainID] = e
	}
	r.log = log
	return r
}

// isLocalEndpoint reports whether raw points at a loopback host. Production
// never talks to a local node; a loopback URL is always a misconfiguration.
func isLocalEndpoint(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// hasNetworkScheme reports whether raw carries an explicit remote scheme. A
// bare host, file path, or unknown scheme is never dialled.
func hasNetworkScheme(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
		return true
	default:
		return false
	}
}

// Entry returns the registry entry for chainID.
func (r *Registry) Entry(chainID int64) (*Entry, error) {
	e, ok := r.entries[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrChainUnknown, chainID)
	}
	return e, nil
}

// StateOf returns the execution state of chainID, DISABLED for unknown chains.
func (r *Registry) StateOf(chainID int64) domain.ExecutionState {
	if e, ok := r.entries[chainID]; ok {
		return e.State
	}
	return domain.ExecutionDisabled
}

// Executable reports whether live trades may be sent to chainID.
func (r *Registry) Executable(chainID int64) bool {
	return r.StateOf(chainID) == domain.ExecutionEnabled
}

// RequireExecutable returns nil only when chainID is cleared for execution.
func (r *Registry) RequireExecutable(chainID int64) error {
	e, ok := r.entries[chainID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrChainUnknown, chainID)
	}
	if e.State != domain.ExecutionEnabled {
		return fmt.Errorf("%w: %s (%s)", domain.ErrChainDisabled, e.Desc.Name, e.State)
	}
	return nil
}

// Active returns the chains to include in a scan cycle: every whitelisted
// chain with a usable endpoint, sorted by chain id.
func (r *Registry) Active() []*Entry {
	var out []*Entry
	for _, e := range r.entries {
		if e.State != domain.ExecutionDisabled {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Desc.ChainID < out[j].Desc.ChainID })
	return out
}

// All returns every whitelisted chain, disabled ones included, sorted by
// chain id.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Desc.ChainID < out[j].Desc.ChainID })
	return out
}

// ActiveIDs returns the chain ids of Active().
func (r *Registry) ActiveIDs() []int64 {
	entries := r.Active()
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.Desc.ChainID
	}
	return ids
}
