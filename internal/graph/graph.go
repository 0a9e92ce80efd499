// Package graph models the cross-chain opportunity space: one node per
// (chain, token) pair and one directed edge per bridgeable transfer.
package graph

import (
	"sort"

	"github.com/apexomega/titan/internal/domain"
	"github.com/apexomega/titan/internal/tokens"
)

// Graph is the immutable opportunity graph for one set of active chains. It
// is rebuilt whenever the active chain set changes, never mutated in place.
type Graph struct {
	chainIDs []int64
	nodes    []domain.TokenNode
	edges    []domain.CrossChainEdge
}

// Build constructs the graph over the given chains. Every registered token
// contributes one node per carrying chain; every bridgeable symbol
// contributes a directed edge for each ordered pair of distinct chains that
// both carry it, so bridges are traversable both ways.
func Build(chainIDs []int64) *Graph {
	ids := append([]int64(nil), chainIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	g := &Graph{chainIDs: ids}

	for _, id := range ids {
		for _, tok := range tokens.ForChain(id) {
			g.nodes = append(g.nodes, domain.TokenNode{
				ChainID:  id,
				Symbol:   tok.Symbol,
				Address:  tok.Address,
				Decimals: tok.Decimals,
			})
		}
	}

	for _, sym := range tokens.BridgeableSymbols(ids) {
		carriers := tokens.ChainsWith(sym, ids)
		for _, src := range carriers {
			for _, dst := range carriers {
				if src == dst {
					continue
				}
				g.edges = append(g.edges, domain.CrossChainEdge{
					SrcChain:     src,
					DstChain:     dst,
					Token:        sym,
					TokenAddrSrc: tokens.Address(src, sym),
					TokenAddrDst: tokens.Address(dst, sym),
					Decimals:     tokens.Decimals(src, sym),
				})
			}
		}
	}

	return g
}

// Nodes returns every (chain, token) node.
func (g *Graph) Nodes() []domain.TokenNode { return g.nodes }

// Edges returns every directed cross-chain edge.
func (g *Graph) Edges() []domain.CrossChainEdge { return g.edges }

// ChainIDs returns the chains the graph was built over, ascending.
func (g *Graph) ChainIDs() []int64 { return g.chainIDs }

// EdgesFrom returns the edges leaving srcChain.
func (g *Graph) EdgesFrom(srcChain int64) []domain.CrossChainEdge {
	var out []domain.CrossChainEdge
	for _, e := range g.edges {
		if e.SrcChain == srcChain {
			out = append(out, e)
		}
	}
	return out
}
