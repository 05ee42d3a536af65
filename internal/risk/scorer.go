package risk

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
)

// Reasons emitted when no rule fired.
const (
	ReasonAllChecksPassed = "All security checks passed"
	ReasonNoRedFlags      = "No red flags detected"
)

// ScoreInput carries every signal bundle collected for one transaction.
// Nil bundles are scored as their unknown defaults.
type ScoreInput struct {
	Wallet   string
	Contract string
	TxType   domain.TxType
	Onchain  *domain.OnchainSignals
	Graph    *domain.GraphSignals
	Forecast *domain.ForecastSignals
	Intel    *domain.ScamIntel
}

// Scorer applies the ordered rule set. It holds no per-request state.
type Scorer struct {
	table      RuleTable
	heuristics *HeuristicEngine
	logger     *slog.Logger
	now        func() time.Time
}

// NewScorer creates a scorer. A nil engine disables static heuristics.
func NewScorer(table RuleTable, heuristics *HeuristicEngine, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		table:      table,
		heuristics: heuristics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Table returns the penalties the scorer applies.
func (s *Scorer) Table() RuleTable {
	return s.table
}

// scoring accumulates penalties and reasons for one call.
type scoring struct {
	total   int
	reasons []string
}

func (c *scoring) add(points int, reason string) {
	c.total += points
	c.reasons = append(c.reasons, reason)
}

func (c *scoring) note(reason string) {
	c.reasons = append(c.reasons, reason)
}

// Score produces the canonical verdict.
func (s *Scorer) Score(in *ScoreInput) *domain.RiskResult {
	walletValid := IsValidAddress(in.Wallet)
	contractValid := IsValidAddress(in.Contract)
	walletBurn := IsBurnAddress(in.Wallet)
	contractBurn := IsBurnAddress(in.Contract)

	if !walletValid || !contractValid || walletBurn || contractBurn {
		return s.terminal(walletValid, contractValid, walletBurn, contractBurn)
	}

	onchain := domain.OnchainSignals{ContractType: domain.ContractTypeUnknown}
	if in.Onchain != nil {
		onchain = *in.Onchain
	}
	graph := domain.GraphSignals{HopDistance: domain.NoHop}
	if in.Graph != nil {
		graph = *in.Graph
	}
	var forecast domain.ForecastSignals
	if in.Forecast != nil {
		forecast = *in.Forecast
	}
	var intel domain.ScamIntel
	if in.Intel != nil {
		intel = *in.Intel
	}

	c := &scoring{}
	s.scamMatch(c, intel)
	s.walletActivity(c, onchain)
	s.contractVerification(c, onchain)
	if !intel.Match {
		s.graphExposure(c, graph)
	}
	s.transactionType(c, in.TxType, intel, forecast)
	s.staticHeuristics(c, in, onchain, graph, intel, forecast)

	score := min(max(c.total, domain.MinScore), domain.MaxScore)
	if len(c.reasons) == 0 {
		c.note(ReasonAllChecksPassed)
		c.note(ReasonNoRedFlags)
	}

	result := &domain.RiskResult{
		Risk:      domain.LabelFor(score),
		Score:     score,
		Reasons:   c.reasons,
		Onchain:   &onchain,
		Graph:     &graph,
		Forecast:  &forecast,
		ScamIntel: &intel,
		Timestamp: s.now(),
		Signals: domain.SignalSummary{
			WalletAddressValid:   true,
			ContractAddressValid: true,
			IsNewWallet:          onchain.TxCount != nil && *onchain.TxCount == 0,
			IsUnverifiedContract: onchain.IsContract && onchain.ContractVerified == domain.VerificationUnverified,
			ScamMatch:            intel.Match,
			ScamCategory:         intel.Category,
			ScamSource:           intel.Source,
			ScamConfidence:       intel.Confidence,
			ClusterID:            intel.ClusterID,
			GraphExplanation:     graph.Explanation,
			DrainProbability:     forecast.DrainProbability,
		},
	}
	if graph.HopDistance != domain.NoHop {
		hops := graph.HopDistance
		result.Signals.GraphHopDistance = &hops
	}

	return result
}

// terminal is the verdict for an unusable or burn address: nothing else runs.
func (s *Scorer) terminal(walletValid, contractValid, walletBurn, contractBurn bool) *domain.RiskResult {
	var reasons []string
	if !walletValid {
		reasons = append(reasons, "CRITICAL: Invalid wallet address format")
	}
	if !contractValid {
		reasons = append(reasons, "CRITICAL: Invalid contract address format")
	}
	if walletBurn {
		reasons = append(reasons, "CRITICAL: Wallet address is a known burn address (funds will be permanently lost)")
	}
	if contractBurn {
		reasons = append(reasons, "CRITICAL: Contract address is a known burn address (funds will be permanently lost)")
	}

	return &domain.RiskResult{
		Risk:      domain.LabelDangerous,
		Score:     domain.MaxScore,
		Reasons:   reasons,
		Timestamp: s.now(),
		Signals: domain.SignalSummary{
			WalletAddressValid:    walletValid,
			ContractAddressValid:  contractValid,
			WalletIsBurnAddress:   walletBurn,
			ContractIsBurnAddress: contractBurn,
		},
	}
}

// ScamPenalty is the direct-match penalty for a category and confidence.
// A nil or zero confidence counts as full confidence.
func (t RuleTable) ScamPenalty(category domain.Category, confidence *float64) int {
	return int(math.Round(t.ScamMatchBase * category.Kind().Multiplier() * confidenceFactor(confidence)))
}

func confidenceFactor(confidence *float64) float64 {
	if confidence == nil || *confidence == 0 {
		return 1.0
	}
	return *confidence
}

func (s *Scorer) scamMatch(c *scoring, intel domain.ScamIntel) {
	if !intel.Match {
		return
	}

	reason := fmt.Sprintf("CRITICAL: Address flagged as '%s' in scam intelligence database", intel.Category.Display())
	if intel.Source != "" {
		reason += fmt.Sprintf(" (Source: %s)", intel.Source)
	}
	if intel.ClusterID != "" {
		reason += fmt.Sprintf(" [Cluster: %s]", intel.ClusterID)
	}
	c.add(s.table.ScamPenalty(intel.Category, intel.Confidence), reason)

	if intel.Confidence != nil && *intel.Confidence >= s.table.HighConfidenceFloor {
		c.note(fmt.Sprintf("High confidence scam indicator (%d%% confidence)", percent(*intel.Confidence)))
	}
}

func (s *Scorer) walletActivity(c *scoring, onchain domain.OnchainSignals) {
	if onchain.TxCount == nil {
		return
	}
	switch n := *onchain.TxCount; {
	case n == 0:
		c.add(s.table.NewWalletPenalty, "This is a brand new wallet with zero transaction history")
	case n > 0 && n < s.table.LowActivityMaxExclusive:
		c.add(s.table.LowActivityPenalty, "Very low activity wallet (fewer than 3 transactions)")
	}
}

func (s *Scorer) contractVerification(c *scoring, onchain domain.OnchainSignals) {
	if !onchain.IsContract {
		c.note("Interacting with a regular wallet (not a contract)")
		return
	}
	switch onchain.ContractVerified {
	case domain.VerificationUnverified:
		c.add(s.table.UnverifiedContractPenalty, "Contract source code is NOT verified on Etherscan")
	case domain.VerificationVerified:
		c.note("Contract is verified on Etherscan")
	}
}

func (s *Scorer) graphExposure(c *scoring, graph domain.GraphSignals) {
	if graph.HopDistance == domain.NoHop {
		return
	}
	switch graph.HopDistance {
	case 0:
		c.add(s.table.GraphFlaggedPenalty, "CRITICAL: Address detected in scam database via graph analysis")
	case 1:
		penalty := s.table.GraphOneHopPenalty
		if graph.NearestCategory.IsDrainer() {
			penalty += s.table.GraphDrainerBonus
		}
		reason := "High Risk: Direct interaction with known scam addresses"
		if graph.NearestCategory != "" {
			reason += fmt.Sprintf(" (%s)", strings.ReplaceAll(string(graph.NearestCategory), "_", " "))
		}
		c.add(penalty, reason)
	case 2:
		c.add(s.table.GraphTwoHopsPenalty, "Caution: 2 hops from known scam activity (indirect exposure)")
	case 3:
		c.add(s.table.GraphThreeHopsPenalty, "Distant connection to scam network detected (3 hops)")
	}
}

func (s *Scorer) transactionType(c *scoring, txType domain.TxType, intel domain.ScamIntel, forecast domain.ForecastSignals) {
	kind := intel.Category.Kind()

	switch {
	case txType == domain.TxApprove:
		if kind == domain.KindApprovalDrainer {
			c.add(s.table.ApproveDrainerPenalty, "CRITICAL: Contract flagged as approval drainer - will steal tokens after approval")
		} else {
			c.add(s.table.ApprovePenalty, "ERC20 Approve detected - grants spending permission to contract")
		}

		p := forecast.DrainProbability
		switch {
		case p >= s.table.DrainExtremeFloor:
			c.add(s.table.DrainExtremePenalty, fmt.Sprintf("Extremely high drain risk (%d%% probability)", percent(p)))
		case p >= s.table.DrainElevatedFloor:
			c.add(s.table.DrainElevatedPenalty, fmt.Sprintf("Elevated drain risk (%d%% probability)", percent(p)))
		}

	case txType == domain.TxSwap:
		if kind == domain.KindMaliciousRouter || kind == domain.KindHoneypot {
			c.add(s.table.SwapMaliciousPenalty, "CRITICAL: Contract identified as malicious swap router or honeypot")
		} else {
			c.add(s.table.SwapPenalty, "Token swap operation - verify you trust the DEX contract")
		}

	case txType.IsSend():
		c.add(s.table.SendPenalty, "Direct transfer - lowest risk transaction type")
	}
}

func (s *Scorer) staticHeuristics(c *scoring, in *ScoreInput, onchain domain.OnchainSignals, graph domain.GraphSignals, intel domain.ScamIntel, forecast domain.ForecastSignals) {
	if s.heuristics == nil {
		return
	}

	txCount := int64(-1)
	if onchain.TxCount != nil {
		txCount = *onchain.TxCount
	}

	hits, err := s.heuristics.Evaluate(HeuristicInput{
		Wallet:           in.Wallet,
		Contract:         in.Contract,
		TxType:           string(in.TxType),
		TxCount:          txCount,
		IsContract:       onchain.IsContract,
		ContractVerified: onchain.ContractVerified.String(),
		ScamMatch:        intel.Match,
		ScamCategory:     string(intel.Category),
		HopDistance:      int64(graph.HopDistance),
		DrainProbability: forecast.DrainProbability,
	})
	if err != nil {
		s.logger.Warn("heuristic evaluation failed", "error", err)
	}
	for _, h := range hits {
		c.add(h.Score, h.Reason)
	}
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
