package risk

import (
	"testing"

	"github.com/opensource-finance/preflight/internal/domain"
)

func TestEstimateContractRisk(t *testing.T) {
	table := DefaultRuleTable()
	contract := func(v domain.Verification) domain.OnchainSignals {
		return domain.OnchainSignals{IsContract: true, ContractVerified: v}
	}
	connected := domain.GraphSignals{HopDistance: 1, Connected: true}
	isolated := domain.GraphSignals{HopDistance: domain.NoHop}

	tests := []struct {
		name    string
		intel   domain.ScamIntel
		onchain domain.OnchainSignals
		graph   domain.GraphSignals
		want    int
	}{
		{"Clean", domain.ScamIntel{}, contract(domain.VerificationVerified), isolated, 0},
		{"EOA", domain.ScamIntel{}, domain.OnchainSignals{}, isolated, 0},
		{"Unverified", domain.ScamIntel{}, contract(domain.VerificationUnverified), isolated, 35},
		{"UnknownVerification", domain.ScamIntel{}, contract(domain.VerificationUnknown), isolated, 15},
		{"GraphOnly", domain.ScamIntel{}, contract(domain.VerificationVerified), connected, 30},
		{"UnverifiedAndGraph", domain.ScamIntel{}, contract(domain.VerificationUnverified), connected, 65},
		{"ScamMatch", domain.ScamIntel{Match: true, Category: domain.CategoryPhishing}, contract(domain.VerificationUnverified), connected, 80},
		{"DrainerMatch", domain.ScamIntel{Match: true, Category: domain.CategoryApprovalDrainer, Confidence: confidence(1)}, contract(domain.VerificationVerified), isolated, 95},
		{"ScaledByConfidence", domain.ScamIntel{Match: true, Category: domain.CategoryHoneypot, Confidence: confidence(0.5)}, contract(domain.VerificationVerified), isolated, 40},
		{"Truncated", domain.ScamIntel{Match: true, Category: domain.CategoryDrainerOperator, Confidence: confidence(0.33)}, contract(domain.VerificationVerified), isolated, 31},
		{"ZeroConfidenceUnscaled", domain.ScamIntel{Match: true, Category: domain.CategoryPhishing, Confidence: confidence(0)}, contract(domain.VerificationVerified), isolated, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.EstimateContractRisk(tt.intel, tt.onchain, tt.graph); got != tt.want {
				t.Errorf("EstimateContractRisk() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateSharesScorerTable(t *testing.T) {
	table := DefaultRuleTable()
	table.UnverifiedContractPenalty = 40

	got := table.EstimateContractRisk(domain.ScamIntel{}, domain.OnchainSignals{IsContract: true, ContractVerified: domain.VerificationUnverified}, domain.GraphSignals{HopDistance: domain.NoHop})
	if got != 40 {
		t.Errorf("estimate = %d, want the scorer's unverified penalty 40", got)
	}
}

func TestScamLinked(t *testing.T) {
	if ScamLinked(domain.ScamIntel{}, domain.GraphSignals{HopDistance: domain.NoHop}) {
		t.Error("no match and no graph connection must not be linked")
	}
	if !ScamLinked(domain.ScamIntel{Match: true}, domain.GraphSignals{}) {
		t.Error("direct match must be linked")
	}
	if !ScamLinked(domain.ScamIntel{}, domain.GraphSignals{HopDistance: 3, Connected: true}) {
		t.Error("graph connection must be linked")
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{cleanWallet, true},
		{"0xABCDEFabcdef0123456789ABCDEFabcdef012345", true},
		{"0x123", false},
		{"1234567890123456789012345678901234567890ab", false},
		{"0X1234567890123456789012345678901234567890", false},
		{"0x123456789012345678901234567890123456789g", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidAddress(tt.addr); got != tt.want {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestIsBurnAddress(t *testing.T) {
	for _, addr := range []string{
		"0x0000000000000000000000000000000000000000",
		"0x000000000000000000000000000000000000dEaD",
		"0x000000000000000000000000000000000000DEAD",
		"0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead",
		"0xdead000000000000000042069420694206942069",
	} {
		if !IsBurnAddress(addr) {
			t.Errorf("IsBurnAddress(%q) = false", addr)
		}
	}
	if IsBurnAddress(cleanWallet) {
		t.Error("clean wallet reported as burn address")
	}
}
