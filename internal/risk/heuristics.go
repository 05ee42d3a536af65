package risk

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"gopkg.in/yaml.v3"
)

// Heuristic is a static pattern check written as a CEL expression that
// must evaluate to a bool. When it is true, Score is added and Reason appended.
type Heuristic struct {
	ID         string `yaml:"id" json:"id"`
	Expression string `yaml:"expression" json:"expression"`
	Score      int    `yaml:"score" json:"score"`
	Reason     string `yaml:"reason" json:"reason"`
}

// BuiltinHeuristics returns the default pattern checks.
// Expressions see wallet and contract already lowercased.
func BuiltinHeuristics() []Heuristic {
	return []Heuristic{
		{
			ID:         "suspicious-contract-keywords",
			Expression: `["dead", "bad", "scam", "fake", "phish"].exists(k, contract.contains(k))`,
			Score:      25,
			Reason:     "Suspicious keywords detected in contract address",
		},
		{
			ID:         "null-like-wallet-prefix",
			Expression: `wallet.startsWith("0x000000")`,
			Score:      15,
			Reason:     "Unusual wallet address pattern (null-like prefix)",
		},
	}
}

// HeuristicInput is the activation exposed to heuristic expressions.
type HeuristicInput struct {
	Wallet           string
	Contract         string
	TxType           string
	TxCount          int64 // -1 when unknown
	IsContract       bool
	ContractVerified string // verified, unverified or unknown
	ScamMatch        bool
	ScamCategory     string
	HopDistance      int64
	DrainProbability float64
}

// Hit is a heuristic that fired.
type Hit struct {
	ID     string
	Score  int
	Reason string
}

type compiledHeuristic struct {
	Heuristic
	program cel.Program
}

// HeuristicEngine evaluates compiled heuristics in their configured order.
// It is immutable after construction and safe for concurrent use.
type HeuristicEngine struct {
	env        *cel.Env
	heuristics []compiledHeuristic
}

// NewHeuristicEngine compiles the given heuristics. Any compile failure
// rejects the whole set.
func NewHeuristicEngine(heuristics []Heuristic) (*HeuristicEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("wallet", cel.StringType),
		cel.Variable("contract", cel.StringType),
		cel.Variable("tx_type", cel.StringType),
		cel.Variable("tx_count", cel.IntType),
		cel.Variable("is_contract", cel.BoolType),
		cel.Variable("contract_verified", cel.StringType),
		cel.Variable("scam_match", cel.BoolType),
		cel.Variable("scam_category", cel.StringType),
		cel.Variable("hop_distance", cel.IntType),
		cel.Variable("drain_probability", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &HeuristicEngine{env: env}
	seen := make(map[string]struct{}, len(heuristics))
	for _, h := range heuristics {
		if _, dup := seen[h.ID]; dup {
			return nil, fmt.Errorf("duplicate heuristic id %q", h.ID)
		}
		seen[h.ID] = struct{}{}

		compiled, err := e.compile(h)
		if err != nil {
			return nil, err
		}
		e.heuristics = append(e.heuristics, compiled)
	}

	return e, nil
}

// DefaultHeuristicEngine compiles the built-in heuristics followed by extras.
func DefaultHeuristicEngine(extra ...Heuristic) (*HeuristicEngine, error) {
	return NewHeuristicEngine(append(BuiltinHeuristics(), extra...))
}

// Validate compiles a heuristic without adding it to the engine.
func (e *HeuristicEngine) Validate(h Heuristic) error {
	_, err := e.compile(h)
	return err
}

// Evaluate runs every heuristic in order and returns those that fired.
// A heuristic that fails at evaluation time is skipped and its error joined
// into the returned error; the hits are still valid.
func (e *HeuristicEngine) Evaluate(in HeuristicInput) ([]Hit, error) {
	activation := map[string]any{
		"wallet":            strings.ToLower(in.Wallet),
		"contract":          strings.ToLower(in.Contract),
		"tx_type":           in.TxType,
		"tx_count":          in.TxCount,
		"is_contract":       in.IsContract,
		"contract_verified": in.ContractVerified,
		"scam_match":        in.ScamMatch,
		"scam_category":     in.ScamCategory,
		"hop_distance":      in.HopDistance,
		"drain_probability": in.DrainProbability,
	}

	var hits []Hit
	var errs []error
	for _, h := range e.heuristics {
		out, _, err := h.program.Eval(activation)
		if err != nil {
			errs = append(errs, fmt.Errorf("heuristic %s: %w", h.ID, err))
			continue
		}
		if fired, ok := out.(types.Bool); ok && bool(fired) {
			hits = append(hits, Hit{ID: h.ID, Score: h.Score, Reason: h.Reason})
		}
	}

	return hits, errors.Join(errs...)
}

// Heuristics returns the loaded heuristics in evaluation order.
func (e *HeuristicEngine) Heuristics() []Heuristic {
	out := make([]Heuristic, len(e.heuristics))
	for i, h := range e.heuristics {
		out[i] = h.Heuristic
	}
	return out
}

// Count returns the number of loaded heuristics.
func (e *HeuristicEngine) Count() int {
	return len(e.heuristics)
}

func (e *HeuristicEngine) compile(h Heuristic) (compiledHeuristic, error) {
	if h.ID == "" {
		return compiledHeuristic{}, errors.New("heuristic id is required")
	}
	if h.Reason == "" {
		return compiledHeuristic{}, fmt.Errorf("heuristic %s: reason is required", h.ID)
	}
	if h.Score < 0 {
		return compiledHeuristic{}, fmt.Errorf("heuristic %s: score must not be negative", h.ID)
	}

	ast, issues := e.env.Compile(h.Expression)
	if issues != nil && issues.Err() != nil {
		return compiledHeuristic{}, fmt.Errorf("failed to compile heuristic %s: %w", h.ID, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return compiledHeuristic{}, fmt.Errorf("heuristic %s: expression must return bool, got %s", h.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return compiledHeuristic{}, fmt.Errorf("failed to create program for heuristic %s: %w", h.ID, err)
	}

	return compiledHeuristic{Heuristic: h, program: program}, nil
}

type heuristicsFile struct {
	Heuristics []Heuristic `yaml:"heuristics"`
}

// LoadHeuristicsFile reads operator-defined heuristics from a YAML file:
//
//	heuristics:
//	  - id: fresh-wallet-approve
//	    expression: 'tx_type == "approve" && tx_count == 0'
//	    score: 10
//	    reason: Brand new wallet granting an approval
func LoadHeuristicsFile(path string) ([]Heuristic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read heuristics file: %w", err)
	}

	var doc heuristicsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode heuristics file: %w", err)
	}
	return doc.Heuristics, nil
}
