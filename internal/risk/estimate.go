package risk

import "github.com/opensource-finance/preflight/internal/domain"

// EstimateContractRisk is the coarse contract-risk figure that parameterizes
// the forecast. It runs before the canonical score exists and reads the same
// rule table, but it is not the verdict.
func (t RuleTable) EstimateContractRisk(intel domain.ScamIntel, onchain domain.OnchainSignals, graph domain.GraphSignals) int {
	estimate := 0

	switch {
	case intel.Match:
		estimate = t.EstimateScamMatch
		if intel.Category.IsDrainer() {
			estimate = t.EstimateDrainerMatch
		}
		if intel.Confidence != nil && *intel.Confidence != 0 {
			estimate = int(float64(estimate) * *intel.Confidence)
		}
	case onchain.IsContract && onchain.ContractVerified == domain.VerificationUnverified:
		estimate = t.UnverifiedContractPenalty
	case onchain.IsContract && onchain.ContractVerified == domain.VerificationUnknown:
		estimate = t.EstimateUnknownVerification
	}

	if graph.Connected && !intel.Match {
		estimate += t.EstimateGraphExposure
	}
	return estimate
}

// ScamLinked reports whether the transaction touches known scam activity,
// directly or through the wallet's transfer graph.
func ScamLinked(intel domain.ScamIntel, graph domain.GraphSignals) bool {
	return intel.Match || graph.Connected
}
