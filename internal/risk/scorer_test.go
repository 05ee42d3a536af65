package risk

import (
	"testing"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cleanWallet   = "0x1234567890123456789012345678901234567890"
	cleanContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	deadMixed     = "0x000000000000000000000000000000000000dEaD"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	engine, err := DefaultHeuristicEngine()
	require.NoError(t, err)

	s := NewScorer(DefaultRuleTable(), engine, nil)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func txCount(n int64) *int64 { return &n }

func confidence(v float64) *float64 { return &v }

func verifiedContract(count int64, v domain.Verification) *domain.OnchainSignals {
	return &domain.OnchainSignals{
		TxCount:          txCount(count),
		IsContract:       true,
		ContractVerified: v,
		ContractType:     domain.ContractTypeSmartContract,
	}
}

func noGraph() *domain.GraphSignals {
	return &domain.GraphSignals{HopDistance: domain.NoHop}
}

func TestScoreScenarios(t *testing.T) {
	s := newTestScorer(t)

	t.Run("VerifiedContractSend", func(t *testing.T) {
		got := s.Score(&ScoreInput{
			Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
			Onchain: verifiedContract(1000, domain.VerificationVerified),
			Graph:   noGraph(),
		})
		assert.Equal(t, 5, got.Score)
		assert.Equal(t, domain.LabelSafe, got.Risk)
		assert.Equal(t, []string{
			"Contract is verified on Etherscan",
			"Direct transfer - lowest risk transaction type",
		}, got.Reasons)
	})

	t.Run("UnverifiedContractSend", func(t *testing.T) {
		got := s.Score(&ScoreInput{
			Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
			Onchain: verifiedContract(1000, domain.VerificationUnverified),
			Graph:   noGraph(),
		})
		assert.Equal(t, 40, got.Score)
		assert.Equal(t, domain.LabelCaution, got.Risk)
		assert.True(t, got.Signals.IsUnverifiedContract)
	})

	t.Run("DeadAddressEitherSide", func(t *testing.T) {
		for _, in := range []*ScoreInput{
			{Wallet: deadMixed, Contract: cleanContract, TxType: domain.TxSend},
			{Wallet: cleanWallet, Contract: deadMixed, TxType: domain.TxApprove, Onchain: verifiedContract(1000, domain.VerificationVerified)},
		} {
			got := s.Score(in)
			assert.Equal(t, 100, got.Score)
			assert.Equal(t, domain.LabelDangerous, got.Risk)
			assert.Len(t, got.Reasons, 1)
			assert.Contains(t, got.Reasons[0], "known burn address")
		}
	})

	t.Run("ApprovalDrainerApprove", func(t *testing.T) {
		intel := &domain.ScamIntel{Match: true, MatchType: domain.MatchContract, Category: domain.CategoryApprovalDrainer, Source: "feed", Confidence: confidence(1.0)}
		assert.Equal(t, 54, s.Table().ScamPenalty(intel.Category, intel.Confidence))

		got := s.Score(&ScoreInput{
			Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxApprove,
			Onchain:  verifiedContract(1000, domain.VerificationVerified),
			Graph:    noGraph(),
			Forecast: &domain.ForecastSignals{DrainProbability: 0.85, AttackWindowBlocks: 10},
			Intel:    intel,
		})
		assert.Equal(t, 100, got.Score)
		assert.Equal(t, domain.LabelDangerous, got.Risk)
		assert.Contains(t, got.Reasons, "CRITICAL: Address flagged as 'Approval Drainer' in scam intelligence database (Source: feed)")
		assert.Contains(t, got.Reasons, "High confidence scam indicator (100% confidence)")
		assert.Contains(t, got.Reasons, "CRITICAL: Contract flagged as approval drainer - will steal tokens after approval")
		assert.Contains(t, got.Reasons, "Extremely high drain risk (85% probability)")
	})

	t.Run("TwoHopsSwapLowerBoundary", func(t *testing.T) {
		got := s.Score(&ScoreInput{
			Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSwap,
			Onchain: verifiedContract(1000, domain.VerificationVerified),
			Graph:   &domain.GraphSignals{HopDistance: 2, Connected: true, NearestCategory: domain.CategoryPhishing},
		})
		assert.Equal(t, 30, got.Score)
		assert.Equal(t, domain.LabelCaution, got.Risk)
		require.NotNil(t, got.Signals.GraphHopDistance)
		assert.Equal(t, 2, *got.Signals.GraphHopDistance)
	})
}

func TestScoreTerminal(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		wallet   string
		contract string
		reasons  int
	}{
		{"InvalidWallet", "0x123", cleanContract, 1},
		{"InvalidContract", cleanWallet, "0xzz00000000000000000000000000000000000000", 1},
		{"UppercasePrefix", "0X1234567890123456789012345678901234567890", cleanContract, 1},
		{"BothInvalid", "", "", 2},
		{"ZeroWalletBurnContract", "0x0000000000000000000000000000000000000000", "0xDEADDEADDEADDEADDEADDEADDEADDEADDEADDEAD", 2},
		{"MemeBurn", cleanWallet, "0xdead000000000000000042069420694206942069", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(&ScoreInput{
				Wallet: tt.wallet, Contract: tt.contract, TxType: domain.TxApprove,
				Onchain: verifiedContract(0, domain.VerificationUnverified),
				Intel:   &domain.ScamIntel{Match: true, Category: domain.CategoryPhishing},
			})
			assert.Equal(t, domain.MaxScore, got.Score)
			assert.Equal(t, domain.LabelDangerous, got.Risk)
			assert.Len(t, got.Reasons, tt.reasons)
			assert.Nil(t, got.Onchain)
			assert.Nil(t, got.Graph)
			assert.Nil(t, got.Forecast)
			assert.Nil(t, got.ScamIntel)
			assert.False(t, got.Signals.ScamMatch, "no downstream signal survives the terminal state")
			assert.Nil(t, got.Signals.GraphHopDistance)
		})
	}
}

func TestScoreNoDoubleCounting(t *testing.T) {
	s := newTestScorer(t)
	base := ScoreInput{
		Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
		Onchain: verifiedContract(1000, domain.VerificationVerified),
		Graph:   &domain.GraphSignals{HopDistance: 0, Connected: true, NearestCategory: domain.CategoryPhishing},
	}

	withMatch := base
	withMatch.Intel = &domain.ScamIntel{Match: true, Category: domain.CategoryPhishing, Confidence: confidence(0.5)}
	got := s.Score(&withMatch)
	// round(45 * 1.15 * 0.5) = 26, plus send.
	assert.Equal(t, 26+5, got.Score)
	assert.NotContains(t, got.Reasons, "CRITICAL: Address detected in scam database via graph analysis")

	got = s.Score(&base)
	assert.Equal(t, 50+5, got.Score)
	assert.Contains(t, got.Reasons, "CRITICAL: Address detected in scam database via graph analysis")
}

func TestScoreConfidenceZeroCountsAsFullWeight(t *testing.T) {
	s := newTestScorer(t)

	zero := s.Score(&ScoreInput{
		Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
		Onchain: verifiedContract(1000, domain.VerificationVerified),
		Intel:   &domain.ScamIntel{Match: true, Category: domain.CategoryHoneypot, Confidence: confidence(0)},
	})
	full := s.Score(&ScoreInput{
		Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
		Onchain: verifiedContract(1000, domain.VerificationVerified),
		Intel:   &domain.ScamIntel{Match: true, Category: domain.CategoryHoneypot, Confidence: confidence(1)},
	})

	// round(45 * 1.15) = 52
	assert.Equal(t, 52+5, zero.Score)
	assert.Equal(t, full.Score, zero.Score)
	assert.NotContains(t, zero.Reasons, "High confidence scam indicator (0% confidence)")
}

func TestScamPenalty(t *testing.T) {
	table := DefaultRuleTable()

	tests := []struct {
		category   domain.Category
		confidence *float64
		want       int
	}{
		{domain.CategoryApprovalDrainer, confidence(1), 54},
		{domain.CategoryDrainerOperator, nil, 54},
		{domain.CategoryPhishing, confidence(1), 52},
		{domain.CategoryMaliciousRouter, confidence(1), 50},
		{domain.CategoryFakeAirdrop, confidence(1), 47},
		{domain.CategoryClusterAssociated, confidence(0.8), 36},
		{domain.Category("novel_scheme"), confidence(0.5), 23},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, table.ScamPenalty(tt.category, tt.confidence))
		})
	}
}

func TestScoreWalletActivity(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name  string
		count *int64
		want  int
	}{
		{"Unknown", nil, 5},
		{"Fresh", txCount(0), 35},
		{"One", txCount(1), 20},
		{"Two", txCount(2), 20},
		{"Three", txCount(3), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onchain := verifiedContract(0, domain.VerificationVerified)
			onchain.TxCount = tt.count
			got := s.Score(&ScoreInput{Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend, Onchain: onchain})
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.count != nil && *tt.count == 0, got.Signals.IsNewWallet)
		})
	}
}

func TestScoreVerificationUnknownAddsNothing(t *testing.T) {
	s := newTestScorer(t)

	got := s.Score(&ScoreInput{
		Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
		Onchain: verifiedContract(1000, domain.VerificationUnknown),
	})
	assert.Equal(t, 5, got.Score)
	assert.Equal(t, []string{"Direct transfer - lowest risk transaction type"}, got.Reasons)
	assert.False(t, got.Signals.IsUnverifiedContract)
}

func TestScoreGraphExposure(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		hops     int
		category domain.Category
		want     int
		reason   string
	}{
		{"OneHopDrainer", 1, domain.CategoryDrainerOperator, 45, "High Risk: Direct interaction with known scam addresses (drainer operator)"},
		{"OneHop", 1, domain.CategoryPhishing, 35, "High Risk: Direct interaction with known scam addresses (phishing)"},
		{"OneHopNoCategory", 1, "", 35, "High Risk: Direct interaction with known scam addresses"},
		{"ThreeHops", 3, domain.CategoryPhishing, 10, "Distant connection to scam network detected (3 hops)"},
		{"FourHops", 4, domain.CategoryPhishing, 0, ""},
		{"NoPath", domain.NoHop, "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(&ScoreInput{
				Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxSend,
				Onchain: verifiedContract(1000, domain.VerificationVerified),
				Graph:   &domain.GraphSignals{HopDistance: tt.hops, Connected: tt.hops != domain.NoHop, NearestCategory: tt.category},
			})
			assert.Equal(t, tt.want+5, got.Score)
			if tt.reason != "" {
				assert.Contains(t, got.Reasons, tt.reason)
			}
		})
	}
}

func TestScoreTransactionType(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name     string
		txType   domain.TxType
		category domain.Category
		drain    float64
		want     int
	}{
		{"Approve", domain.TxApprove, "", 0.05, 25},
		{"ApproveElevated", domain.TxApprove, "", 0.5, 40},
		{"ApproveJustBelowExtreme", domain.TxApprove, "", 0.79, 40},
		{"ApproveExtreme", domain.TxApprove, "", 0.8, 50},
		{"Swap", domain.TxSwap, "", 0.9, 10},
		{"SwapHoneypotCategory", domain.TxSwap, domain.CategoryHoneypot, 0, 35},
		{"Send", domain.TxSend, "", 0.95, 5},
		{"Transfer", domain.TxTransfer, "", 0, 5},
		{"Unknown", domain.TxType("mint"), "", 0.99, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intel := &domain.ScamIntel{Category: tt.category}
			got := s.Score(&ScoreInput{
				Wallet: cleanWallet, Contract: cleanContract, TxType: tt.txType,
				Onchain:  verifiedContract(1000, domain.VerificationVerified),
				Forecast: &domain.ForecastSignals{DrainProbability: tt.drain},
				Intel:    intel,
			})
			assert.Equal(t, tt.want, got.Score)
		})
	}
}

func TestScoreStaticHeuristics(t *testing.T) {
	s := newTestScorer(t)

	got := s.Score(&ScoreInput{
		Wallet:   "0x0000001234567890123456789012345678901234",
		Contract: "0xBAD0000000000000000000000000000000000001",
		TxType:   domain.TxSend,
		Onchain:  verifiedContract(1000, domain.VerificationVerified),
	})
	assert.Equal(t, 5+25+15, got.Score)
	assert.Equal(t, []string{
		"Contract is verified on Etherscan",
		"Direct transfer - lowest risk transaction type",
		"Suspicious keywords detected in contract address",
		"Unusual wallet address pattern (null-like prefix)",
	}, got.Reasons)
}

func TestScoreDefaultReasons(t *testing.T) {
	s := NewScorer(DefaultRuleTable(), nil, nil)

	got := s.Score(&ScoreInput{
		Wallet: cleanWallet, Contract: cleanContract, TxType: domain.TxType("mint"),
		Onchain: verifiedContract(1000, domain.VerificationUnknown),
	})
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, domain.LabelSafe, got.Risk)
	assert.Equal(t, []string{ReasonAllChecksPassed, ReasonNoRedFlags}, got.Reasons)
}

func TestScoreBoundsAndReasons(t *testing.T) {
	s := newTestScorer(t)
	categories := []domain.Category{"", domain.CategoryApprovalDrainer, domain.CategoryHoneypot, domain.CategoryMaliciousRouter}
	txTypes := []domain.TxType{domain.TxApprove, domain.TxSwap, domain.TxSend, "other"}
	contracts := []string{cleanContract, "0xbadbadbadbadbadbadbadbadbadbadbadbadbad0"}

	for _, cat := range categories {
		for _, txType := range txTypes {
			for _, contract := range contracts {
				for hops := domain.NoHop; hops <= 4; hops++ {
					for _, verification := range []domain.Verification{domain.VerificationUnknown, domain.VerificationVerified, domain.VerificationUnverified} {
						got := s.Score(&ScoreInput{
							Wallet:   "0x0000000000000000000000000000000000000001",
							Contract: contract,
							TxType:   txType,
							Onchain:  verifiedContract(0, verification),
							Graph:    &domain.GraphSignals{HopDistance: hops, Connected: hops >= 0, NearestCategory: domain.CategoryApprovalDrainer},
							Forecast: &domain.ForecastSignals{DrainProbability: 0.95},
							Intel:    &domain.ScamIntel{Match: cat != "", Category: cat, Confidence: confidence(1)},
						})
						if got.Score < domain.MinScore || got.Score > domain.MaxScore {
							t.Fatalf("score %d out of bounds", got.Score)
						}
						if got.Risk != domain.LabelFor(got.Score) {
							t.Fatalf("label %s does not match score %d", got.Risk, got.Score)
						}
						if len(got.Reasons) == 0 {
							t.Fatal("reasons must never be empty")
						}
					}
				}
			}
		}
	}
}

func TestLabelBands(t *testing.T) {
	for score := domain.MinScore; score <= domain.MaxScore; score++ {
		want := domain.LabelSafe
		switch {
		case score >= 70:
			want = domain.LabelDangerous
		case score >= 30:
			want = domain.LabelCaution
		}
		assert.Equal(t, want, domain.LabelFor(score), "score %d", score)
	}
}
