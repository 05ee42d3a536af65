package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x1234567890123456789012345678901234567890"

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// fakeNode answers JSON-RPC calls from a method table.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]func(params []json.RawMessage) (any, *rpcError)
	calls    map[string][]json.RawMessage
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		handlers: make(map[string]func([]json.RawMessage) (any, *rpcError)),
		calls:    make(map[string][]json.RawMessage),
	}
}

func (n *fakeNode) on(method string, h func([]json.RawMessage) (any, *rpcError)) {
	n.handlers[method] = h
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	if len(req.Params) > 0 {
		n.calls[req.Method] = append(n.calls[req.Method], req.Params[0])
	}
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = rpcError{Code: -32601, Message: "method not found"}
	} else if result, rerr := h(req.Params); rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func dialFake(t *testing.T, node *fakeNode, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	cfg.RPCURL = srv.URL
	c, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestTxCount(t *testing.T) {
	node := newFakeNode()
	node.on("eth_getTransactionCount", func([]json.RawMessage) (any, *rpcError) { return "0x3e8", nil })
	c := dialFake(t, node, Config{})

	n, err := c.TxCount(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
}

func TestContractCode(t *testing.T) {
	t.Run("Deployed", func(t *testing.T) {
		node := newFakeNode()
		node.on("eth_getCode", func([]json.RawMessage) (any, *rpcError) { return "0x6080604052", nil })
		c := dialFake(t, node, Config{})

		code, err := c.ContractCode(context.Background(), testWallet)
		require.NoError(t, err)
		assert.Equal(t, "0x6080604052", code)
	})

	t.Run("EOA", func(t *testing.T) {
		node := newFakeNode()
		node.on("eth_getCode", func([]json.RawMessage) (any, *rpcError) { return "0x", nil })
		c := dialFake(t, node, Config{})

		code, err := c.ContractCode(context.Background(), testWallet)
		require.NoError(t, err)
		assert.Equal(t, domain.EmptyCode, code)
	})

	t.Run("RPCError", func(t *testing.T) {
		node := newFakeNode()
		node.on("eth_getCode", func([]json.RawMessage) (any, *rpcError) {
			return nil, &rpcError{Code: -32000, Message: "header not found"}
		})
		c := dialFake(t, node, Config{})

		_, err := c.ContractCode(context.Background(), testWallet)
		assert.ErrorContains(t, err, "header not found")
	})
}

func TestRecentTransfers(t *testing.T) {
	node := newFakeNode()
	node.on("alchemy_getAssetTransfers", func([]json.RawMessage) (any, *rpcError) {
		return map[string]any{"transfers": []map[string]any{
			{"from": "0xAAAAaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "to": "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
			{"from": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "to": nil},
			{"from": "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "to": "0xcccccccccccccccccccccccccccccccccccccccc"},
		}}, nil
	})
	c := dialFake(t, node, Config{TransferLimit: 2})

	got, err := c.RecentTransfers(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, []domain.Transfer{
		{From: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", To: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
		{From: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", To: ""},
	}, got, "results are capped at the limit")

	node.mu.Lock()
	defer node.mu.Unlock()
	require.Len(t, node.calls["alchemy_getAssetTransfers"], 1)
	var params assetTransfersParams
	require.NoError(t, json.Unmarshal(node.calls["alchemy_getAssetTransfers"][0], &params))
	assert.Equal(t, "0x2", params.MaxCount)
	assert.Equal(t, testWallet, params.FromAddress)
	assert.Equal(t, []string{"external", "erc20", "erc721"}, params.Category)
}

func TestRecentTransfersUnsupported(t *testing.T) {
	c := dialFake(t, newFakeNode(), Config{})

	_, err := c.RecentTransfers(context.Background(), testWallet)
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	node := newFakeNode()
	node.on("eth_getTransactionCount", func([]json.RawMessage) (any, *rpcError) {
		time.Sleep(200 * time.Millisecond)
		return "0x1", nil
	})
	c := dialFake(t, node, Config{Timeout: 20 * time.Millisecond})

	_, err := c.TxCount(context.Background(), testWallet)
	assert.Error(t, err)
}

func TestDialRequiresURL(t *testing.T) {
	_, err := Dial(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrRPCConnection)
}

func TestDefaultLimit(t *testing.T) {
	c := New(nil, nil, Config{})
	assert.Equal(t, DefaultTransferLimit, c.limit)
}

func TestOffline(t *testing.T) {
	ctx := context.Background()
	var p domain.BlockchainDataProvider = Offline{}

	_, err := p.TxCount(ctx, testWallet)
	assert.ErrorIs(t, err, ErrNoEndpoint)
	_, err = p.ContractCode(ctx, testWallet)
	assert.ErrorIs(t, err, ErrNoEndpoint)
	_, err = p.RecentTransfers(ctx, testWallet)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
