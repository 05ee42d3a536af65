// Package intel provides the read-only scam intelligence index.
package intel

import (
	"strings"

	"github.com/opensource-finance/preflight/internal/domain"
)

// Defaults applied to feed entries that omit a field.
const (
	DefaultCategory   = domain.CategoryUnknown
	DefaultSource     = "unknown"
	DefaultConfidence = 0.5
	DefaultClusterID  = domain.DefaultClusterID
)

// Index maps known-bad addresses to their intelligence records.
// It is built once and never mutated, so it is safe for concurrent readers.
type Index struct {
	wallets        map[string]domain.ScamRecord
	contracts      map[string]domain.ScamRecord
	clusters       map[string]domain.ScamCluster
	addressCluster map[string]string
	flagged        map[string]struct{}
}

// Stats summarizes the index contents.
type Stats struct {
	Wallets        int `json:"wallets"`
	Contracts      int `json:"contracts"`
	Clusters       int `json:"clusters"`
	ClusterMembers int `json:"cluster_members"` // distinct addresses in any cluster
	Flagged        int `json:"flagged"`
}

// Empty returns an index with no records.
func Empty() *Index {
	return NewIndex(nil)
}

// NewIndex builds an index from a feed. Addresses are lowercased and
// missing fields take the package defaults. Entries without an address are skipped.
func NewIndex(feed *domain.IntelFeed) *Index {
	ix := &Index{
		wallets:        make(map[string]domain.ScamRecord),
		contracts:      make(map[string]domain.ScamRecord),
		clusters:       make(map[string]domain.ScamCluster),
		addressCluster: make(map[string]string),
		flagged:        make(map[string]struct{}),
	}
	if feed == nil {
		return ix
	}

	for _, rec := range feed.Wallets {
		if r, ok := normalizeRecord(rec); ok {
			ix.wallets[r.Address] = r
			ix.flagged[r.Address] = struct{}{}
		}
	}
	for _, rec := range feed.Contracts {
		if r, ok := normalizeRecord(rec); ok {
			ix.contracts[r.Address] = r
			ix.flagged[r.Address] = struct{}{}
		}
	}
	for _, c := range feed.Clusters {
		cluster := normalizeCluster(c)
		ix.clusters[cluster.ClusterID] = cluster
		for _, addr := range cluster.Addresses {
			ix.addressCluster[addr] = cluster.ClusterID
			ix.flagged[addr] = struct{}{}
		}
	}

	return ix
}

// Lookup returns the intelligence for an address. Wallet records win over
// contract records, which win over bare cluster membership.
func (ix *Index) Lookup(address string) domain.ScamIntel {
	addr := Normalize(address)

	if rec, ok := ix.wallets[addr]; ok {
		return ix.recordIntel(domain.MatchWallet, rec)
	}
	if rec, ok := ix.contracts[addr]; ok {
		return ix.recordIntel(domain.MatchContract, rec)
	}
	if clusterID, ok := ix.addressCluster[addr]; ok {
		cluster := ix.clusters[clusterID]
		return domain.ScamIntel{
			Match:      true,
			MatchType:  domain.MatchClusterMember,
			Category:   domain.CategoryClusterAssociated,
			Source:     cluster.Source,
			Confidence: copyFloat(cluster.Confidence),
			Notes:      cluster.Notes,
			ClusterID:  clusterID,
		}
	}

	return domain.ScamIntel{}
}

// IsFlagged reports whether the address appears anywhere in the index.
func (ix *Index) IsFlagged(address string) bool {
	_, ok := ix.flagged[Normalize(address)]
	return ok
}

// Record returns the explicit wallet or contract record for an address,
// checking wallets first. Cluster-only members have no record.
func (ix *Index) Record(address string) (domain.ScamRecord, bool) {
	addr := Normalize(address)
	if rec, ok := ix.wallets[addr]; ok {
		return rec, true
	}
	rec, ok := ix.contracts[addr]
	return rec, ok
}

// Cluster returns a cluster by id.
func (ix *Index) Cluster(clusterID string) (domain.ScamCluster, bool) {
	c, ok := ix.clusters[clusterID]
	return c, ok
}

// Stats returns record counts.
func (ix *Index) Stats() Stats {
	return Stats{
		Wallets:        len(ix.wallets),
		Contracts:      len(ix.contracts),
		Clusters:       len(ix.clusters),
		ClusterMembers: len(ix.addressCluster),
		Flagged:        len(ix.flagged),
	}
}

// Normalize lowercases and trims an address for map lookups.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func (ix *Index) recordIntel(matchType string, rec domain.ScamRecord) domain.ScamIntel {
	return domain.ScamIntel{
		Match:      true,
		MatchType:  matchType,
		Category:   rec.Category,
		Source:     rec.Source,
		Confidence: copyFloat(rec.Confidence),
		Notes:      rec.Notes,
		ClusterID:  ix.addressCluster[rec.Address],
	}
}

func normalizeRecord(rec domain.ScamRecord) (domain.ScamRecord, bool) {
	rec.Address = Normalize(rec.Address)
	if rec.Address == "" {
		return rec, false
	}
	if rec.Category == "" {
		rec.Category = DefaultCategory
	}
	if rec.Source == "" {
		rec.Source = DefaultSource
	}
	if rec.Confidence == nil {
		rec.Confidence = floatPtr(DefaultConfidence)
	} else {
		rec.Confidence = copyFloat(rec.Confidence)
	}
	return rec, true
}

func normalizeCluster(c domain.ScamCluster) domain.ScamCluster {
	if c.ClusterID == "" {
		c.ClusterID = DefaultClusterID
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Confidence == nil {
		c.Confidence = floatPtr(DefaultConfidence)
	} else {
		c.Confidence = copyFloat(c.Confidence)
	}

	addrs := make([]string, 0, len(c.Addresses))
	seen := make(map[string]struct{}, len(c.Addresses))
	for _, a := range c.Addresses {
		a = Normalize(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	c.Addresses = addrs
	return c
}

func floatPtr(v float64) *float64 {
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
