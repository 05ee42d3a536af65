package domain

import (
	"time"
)

// Label is the categorical verdict of an analysis.
type Label string

const (
	LabelSafe      Label = "SAFE"
	LabelCaution   Label = "CAUTION"
	LabelDangerous Label = "DANGEROUS"
)

// Score bounds and band edges. Bands partition [MinScore, MaxScore]:
// SAFE [0,29], CAUTION [30,69], DANGEROUS [70,100].
const (
	MinScore       = 0
	MaxScore       = 100
	CautionFloor   = 30
	DangerousFloor = 70
)

// LabelFor maps a clamped score onto its band.
func LabelFor(score int) Label {
	switch {
	case score >= DangerousFloor:
		return LabelDangerous
	case score >= CautionFloor:
		return LabelCaution
	default:
		return LabelSafe
	}
}

// AnalyzeRequest is a proposed transaction awaiting a verdict.
type AnalyzeRequest struct {
	Wallet   string `json:"wallet"`
	Contract string `json:"contract"`
	TxType   TxType `json:"tx_type"`
}

// RiskResult is the canonical verdict for one analysis.
// Signal bundles are nil when the analysis stopped at address validation.
type RiskResult struct {
	Risk      Label            `json:"risk"`
	Score     int              `json:"score"`
	Reasons   []string         `json:"reasons"`
	Onchain   *OnchainSignals  `json:"onchain_signals"`
	Graph     *GraphSignals    `json:"graph_signals"`
	Forecast  *ForecastSignals `json:"forecast_signals"`
	ScamIntel *ScamIntel       `json:"scam_intel"`
	Signals   SignalSummary    `json:"signals"`
	Timestamp time.Time        `json:"timestamp"`
}

// SignalSummary is the flattened view of every signal that fed the verdict.
type SignalSummary struct {
	WalletAddressValid    bool `json:"wallet_address_valid"`
	ContractAddressValid  bool `json:"contract_address_valid"`
	WalletIsBurnAddress   bool `json:"wallet_is_burn_address"`
	ContractIsBurnAddress bool `json:"contract_is_burn_address"`

	IsNewWallet          bool `json:"is_new_wallet"`
	IsUnverifiedContract bool `json:"is_unverified_contract"`

	ScamMatch      bool     `json:"scam_match"`
	ScamCategory   Category `json:"scam_category,omitempty"`
	ScamSource     string   `json:"scam_source,omitempty"`
	ScamConfidence *float64 `json:"scam_confidence"`
	ClusterID      string   `json:"cluster_id,omitempty"`

	GraphHopDistance *int   `json:"graph_hop_distance"`
	GraphExplanation string `json:"graph_explanation,omitempty"`

	DrainProbability float64 `json:"drain_probability"`
}
