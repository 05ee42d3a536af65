package domain

import "context"

// ScamRecord is one flagged wallet or contract.
type ScamRecord struct {
	Address    string   `json:"address" yaml:"address"`
	Category   Category `json:"category" yaml:"category"`
	Source     string   `json:"source" yaml:"source"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	ClusterID  string   `json:"cluster_id,omitempty" yaml:"cluster_id,omitempty"`
}

// DefaultClusterID names a cluster whose feed entry omits cluster_id.
const DefaultClusterID = "unknown_cluster"

// ScamCluster is a group of addresses believed to share one operator.
type ScamCluster struct {
	ClusterID  string   `json:"cluster_id" yaml:"cluster_id"`
	Addresses  []string `json:"addresses" yaml:"addresses"`
	Source     string   `json:"source" yaml:"source"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// IntelFeed is the record set an intelligence source provides.
type IntelFeed struct {
	Wallets   []ScamRecord  `json:"wallets" yaml:"wallets"`
	Contracts []ScamRecord  `json:"contracts" yaml:"contracts"`
	Clusters  []ScamCluster `json:"clusters" yaml:"clusters"`
}

// IntelSource produces a scam intelligence feed.
type IntelSource interface {
	LoadFeed(ctx context.Context) (*IntelFeed, error)
}
