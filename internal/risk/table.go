// Package risk turns collected signals into the canonical verdict.
package risk

// RuleTable holds every penalty used by the scorer and by the lightweight
// contract-risk estimate, so both passes read the same numbers.
type RuleTable struct {
	// Direct scam-intelligence match.
	ScamMatchBase       float64
	HighConfidenceFloor float64

	// Wallet activity.
	NewWalletPenalty        int
	LowActivityPenalty      int
	LowActivityMaxExclusive int64

	// Contract verification.
	UnverifiedContractPenalty int

	// Graph exposure, by hop distance.
	GraphFlaggedPenalty   int
	GraphOneHopPenalty    int
	GraphDrainerBonus     int
	GraphTwoHopsPenalty   int
	GraphThreeHopsPenalty int

	// Transaction type and forecast.
	ApprovePenalty        int
	ApproveDrainerPenalty int
	DrainExtremeFloor     float64
	DrainExtremePenalty   int
	DrainElevatedFloor    float64
	DrainElevatedPenalty  int
	SwapPenalty           int
	SwapMaliciousPenalty  int
	SendPenalty           int

	// Lightweight estimate only.
	EstimateScamMatch           int
	EstimateDrainerMatch        int
	EstimateUnknownVerification int
	EstimateGraphExposure       int
}

// DefaultRuleTable returns the production penalties.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		ScamMatchBase:       45,
		HighConfidenceFloor: 0.9,

		NewWalletPenalty:        30,
		LowActivityPenalty:      15,
		LowActivityMaxExclusive: 3,

		UnverifiedContractPenalty: 35,

		GraphFlaggedPenalty:   50,
		GraphOneHopPenalty:    35,
		GraphDrainerBonus:     10,
		GraphTwoHopsPenalty:   20,
		GraphThreeHopsPenalty: 10,

		ApprovePenalty:        25,
		ApproveDrainerPenalty: 45,
		DrainExtremeFloor:     0.8,
		DrainExtremePenalty:   25,
		DrainElevatedFloor:    0.5,
		DrainElevatedPenalty:  15,
		SwapPenalty:           10,
		SwapMaliciousPenalty:  35,
		SendPenalty:           5,

		EstimateScamMatch:           80,
		EstimateDrainerMatch:        95,
		EstimateUnknownVerification: 15,
		EstimateGraphExposure:       30,
	}
}
