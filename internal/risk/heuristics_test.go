package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinHeuristics(t *testing.T) {
	engine, err := DefaultHeuristicEngine()
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Count())

	tests := []struct {
		name     string
		wallet   string
		contract string
		want     []string
	}{
		{"Clean", cleanWallet, cleanContract, nil},
		{"Dead", cleanWallet, "0x1111dead11111111111111111111111111111111", []string{"suspicious-contract-keywords"}},
		{"UppercaseBad", cleanWallet, "0x1111BAD111111111111111111111111111111111", []string{"suspicious-contract-keywords"}},
		{"Fake", cleanWallet, "0x11111111111111111111111111111111111fake1", []string{"suspicious-contract-keywords"}},
		{"NullPrefix", "0x0000001111111111111111111111111111111111", cleanContract, []string{"null-like-wallet-prefix"}},
		{"Both", "0x000000badbadbadbadbadbadbadbadbadbadbadb", "0xdeadbeef00000000000000000000000000000000", []string{"suspicious-contract-keywords", "null-like-wallet-prefix"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := engine.Evaluate(HeuristicInput{Wallet: tt.wallet, Contract: tt.contract, TxCount: -1, HopDistance: -1})
			require.NoError(t, err)

			var ids []string
			for _, h := range hits {
				ids = append(ids, h.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHeuristicEngineExtras(t *testing.T) {
	engine, err := DefaultHeuristicEngine(Heuristic{
		ID:         "fresh-wallet-approve",
		Expression: `tx_type == "approve" && tx_count == 0`,
		Score:      10,
		Reason:     "Brand new wallet granting an approval",
	})
	require.NoError(t, err)

	hits, err := engine.Evaluate(HeuristicInput{Wallet: cleanWallet, Contract: cleanContract, TxType: "approve", TxCount: 0})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, Hit{ID: "fresh-wallet-approve", Score: 10, Reason: "Brand new wallet granting an approval"}, hits[0])

	ids := make([]string, 0, engine.Count())
	for _, h := range engine.Heuristics() {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"suspicious-contract-keywords", "null-like-wallet-prefix", "fresh-wallet-approve"}, ids)
}

func TestHeuristicEngineRejects(t *testing.T) {
	tests := []struct {
		name string
		h    Heuristic
	}{
		{"MissingID", Heuristic{Expression: "true", Reason: "r"}},
		{"MissingReason", Heuristic{ID: "x", Expression: "true"}},
		{"NegativeScore", Heuristic{ID: "x", Expression: "true", Score: -5, Reason: "r"}},
		{"SyntaxError", Heuristic{ID: "x", Expression: "wallet ==", Reason: "r"}},
		{"UnknownVariable", Heuristic{ID: "x", Expression: "amount > 1.0", Reason: "r"}},
		{"NonBoolResult", Heuristic{ID: "x", Expression: "tx_count + 1", Reason: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeuristicEngine([]Heuristic{tt.h})
			assert.Error(t, err)
		})
	}

	t.Run("DuplicateID", func(t *testing.T) {
		_, err := DefaultHeuristicEngine(BuiltinHeuristics()[0])
		assert.Error(t, err)
	})

	t.Run("Validate", func(t *testing.T) {
		engine, err := NewHeuristicEngine(nil)
		require.NoError(t, err)
		assert.NoError(t, engine.Validate(Heuristic{ID: "ok", Expression: "is_contract", Reason: "r"}))
		assert.Error(t, engine.Validate(Heuristic{ID: "bad", Expression: "drain_probability", Reason: "r"}))
		assert.Zero(t, engine.Count())
	})
}

func TestHeuristicEvaluationErrorSkipsOnlyThatHeuristic(t *testing.T) {
	engine, err := NewHeuristicEngine([]Heuristic{
		{ID: "divide", Expression: "10 / tx_count > 1", Score: 5, Reason: "divides"},
		{ID: "contract", Expression: "is_contract", Score: 1, Reason: "is a contract"},
	})
	require.NoError(t, err)

	hits, err := engine.Evaluate(HeuristicInput{TxCount: 0, IsContract: true})
	assert.Error(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "contract", hits[0].ID)
}

func TestLoadHeuristicsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	doc := `heuristics:
  - id: deep-graph-approve
    expression: 'tx_type == "approve" && hop_distance == 2'
    score: 5
    reason: Approval to a contract near scam activity
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	loaded, err := LoadHeuristicsFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "deep-graph-approve", loaded[0].ID)
	assert.Equal(t, 5, loaded[0].Score)

	_, err = DefaultHeuristicEngine(loaded...)
	assert.NoError(t, err)

	_, err = LoadHeuristicsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
