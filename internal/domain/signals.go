package domain

import (
	"encoding/json"
	"fmt"
)

// TxType is the kind of transaction the user is about to sign.
type TxType string

const (
	TxApprove  TxType = "approve"
	TxSwap     TxType = "swap"
	TxSend     TxType = "send"
	TxTransfer TxType = "transfer" // accepted by the scorer as an alias of send
)

// IsSend reports whether the type is a plain value transfer.
func (t TxType) IsSend() bool {
	return t == TxSend || t == TxTransfer
}

// Contract type labels reported in OnchainSignals.
const (
	ContractTypeSmartContract = "SMART_CONTRACT"
	ContractTypeEOA           = "EOA"
	ContractTypeUnknown       = "UNKNOWN"
)

// Verification is the source-verification status of a contract.
// The zero value is VerificationUnknown: an unknown status is never a negative finding.
type Verification int8

const (
	VerificationUnknown Verification = iota
	VerificationVerified
	VerificationUnverified
)

// String returns the status name.
func (v Verification) String() string {
	switch v {
	case VerificationVerified:
		return "verified"
	case VerificationUnverified:
		return "unverified"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as true, false or null.
func (v Verification) MarshalJSON() ([]byte, error) {
	switch v {
	case VerificationVerified:
		return []byte("true"), nil
	case VerificationUnverified:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true, false or null.
func (v *Verification) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("contract_verified must be true, false or null: %w", err)
	}
	switch {
	case b == nil:
		*v = VerificationUnknown
	case *b:
		*v = VerificationVerified
	default:
		*v = VerificationUnverified
	}
	return nil
}

// Transfer is one recent asset transfer touching the analyzed wallet.
type Transfer struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// OnchainSignals holds what the chain said about the wallet and contract.
type OnchainSignals struct {
	TxCount          *int64       `json:"tx_count"` // nil when the count could not be fetched
	IsContract       bool         `json:"is_contract"`
	ContractVerified Verification `json:"contract_verified"`
	ContractType     string       `json:"contract_type"`
}

// ScamIntel is the result of a scam intelligence lookup.
type ScamIntel struct {
	Match      bool     `json:"scam_match"`
	MatchType  string   `json:"scam_type,omitempty"` // wallet, contract or cluster_member
	Category   Category `json:"scam_category,omitempty"`
	Source     string   `json:"scam_source,omitempty"`
	Confidence *float64 `json:"scam_confidence"`
	Notes      string   `json:"scam_notes,omitempty"`
	ClusterID  string   `json:"cluster_id,omitempty"`
}

// Scam intel match types.
const (
	MatchWallet        = "wallet"
	MatchContract      = "contract"
	MatchClusterMember = "cluster_member"
)

// NoHop is the hop-distance sentinel for "no connection found".
const NoHop = -1

// GraphSignals describes the wallet's proximity to flagged addresses.
type GraphSignals struct {
	HopDistance     int      `json:"wallet_scam_distance"`
	Connected       bool     `json:"connected_to_scam_cluster"`
	NearestCategory Category `json:"nearest_scam_category,omitempty"`
	NearestSource   string   `json:"nearest_scam_source,omitempty"`
	Explanation     string   `json:"graph_explanation"`
}

// ForecastSignals is the heuristic outlook for the transaction.
type ForecastSignals struct {
	DrainProbability   float64 `json:"drain_probability"`
	AttackWindowBlocks int     `json:"attack_window_blocks"`
}
