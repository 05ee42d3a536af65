// Package graph measures how close a wallet sits to flagged addresses in its
// recent transfer history.
package graph

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/preflight/internal/domain"
)

// Seeds is the set of flagged addresses the traversal searches for.
// *intel.Index satisfies it.
type Seeds interface {
	IsFlagged(address string) bool
	Record(address string) (domain.ScamRecord, bool)
}

// Explanations keyed by hop distance.
const (
	ExplainFlagged      = "Address is directly flagged in scam intelligence database"
	ExplainDirect       = "Address has directly interacted with known scam addresses"
	ExplainTwoHops      = "Address is 2 hops away from known scam activity (indirect exposure)"
	ExplainThreeHops    = "Distant connection to scam activity detected (3 hops)"
	ExplainNoConnection = "No meaningful connection to known scam addresses detected"
)

// walletGraph is an undirected, unweighted adjacency list. Nodes keep their
// insertion order so traversal and tie-breaking are deterministic.
type walletGraph struct {
	index map[string]int
	nodes []string
	adj   [][]int
}

func newWalletGraph(capacity int) *walletGraph {
	return &walletGraph{
		index: make(map[string]int, capacity),
		nodes: make([]string, 0, capacity),
		adj:   make([][]int, 0, capacity),
	}
}

func (g *walletGraph) addNode(addr string) int {
	if id, ok := g.index[addr]; ok {
		return id
	}
	id := len(g.nodes)
	g.index[addr] = id
	g.nodes = append(g.nodes, addr)
	g.adj = append(g.adj, nil)
	return id
}

func (g *walletGraph) addEdge(a, b string) {
	ia, ib := g.addNode(a), g.addNode(b)
	g.adj[ia] = append(g.adj[ia], ib)
	if ia != ib {
		g.adj[ib] = append(g.adj[ib], ia)
	}
}

// distances runs a breadth-first search from src and returns the hop count to
// every node, -1 for nodes that cannot be reached.
func (g *walletGraph) distances(src int) []int {
	dist := make([]int, len(g.nodes))
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0

	queue := []int{src}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.adj[n] {
			if dist[m] == -1 {
				dist[m] = dist[n] + 1
				queue = append(queue, m)
			}
		}
	}
	return dist
}

// Analyze builds a graph from the wallet's transfers and returns the hop
// distance to the nearest flagged address. The graph lives only for the
// duration of the call.
func Analyze(wallet string, transfers []domain.Transfer, seeds Seeds) domain.GraphSignals {
	w := normalize(wallet)

	if seeds.IsFlagged(w) {
		cat, src := nearest(seeds, w)
		return domain.GraphSignals{
			HopDistance:     0,
			Connected:       true,
			NearestCategory: cat,
			NearestSource:   src,
			Explanation:     Explain(0, cat),
		}
	}

	g := newWalletGraph(len(transfers)*2 + 1)
	root := g.addNode(w)
	for _, t := range transfers {
		from, to := normalize(t.From), normalize(t.To)
		if from == "" || to == "" {
			continue
		}
		g.addEdge(from, to)
	}

	dist := g.distances(root)
	best, bestNode := domain.NoHop, -1
	for id, addr := range g.nodes {
		if dist[id] < 0 || !seeds.IsFlagged(addr) {
			continue
		}
		if best == domain.NoHop || dist[id] < best {
			best, bestNode = dist[id], id
		}
	}

	if bestNode < 0 {
		return domain.GraphSignals{
			HopDistance: domain.NoHop,
			Explanation: Explain(domain.NoHop, ""),
		}
	}

	cat, src := nearest(seeds, g.nodes[bestNode])
	return domain.GraphSignals{
		HopDistance:     best,
		Connected:       true,
		NearestCategory: cat,
		NearestSource:   src,
		Explanation:     Explain(best, cat),
	}
}

// Explain returns the fixed explanation for a hop distance.
func Explain(hops int, category domain.Category) string {
	switch hops {
	case 0:
		return ExplainFlagged
	case 1:
		if category == "" {
			return ExplainDirect
		}
		return fmt.Sprintf("%s (%s)", ExplainDirect, category)
	case 2:
		return ExplainTwoHops
	case 3:
		return ExplainThreeHops
	default:
		return ExplainNoConnection
	}
}

// nearest reports the record behind a flagged node. Cluster-only members have
// no record and report empty values.
func nearest(seeds Seeds, addr string) (domain.Category, string) {
	rec, ok := seeds.Record(addr)
	if !ok {
		return "", ""
	}
	return rec.Category, rec.Source
}

func normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
