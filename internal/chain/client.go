// Package chain reads account state from an Ethereum JSON-RPC endpoint.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/opensource-finance/preflight/internal/domain"
)

// ErrRPCConnection is returned when the endpoint cannot be dialed.
var ErrRPCConnection = errors.New("rpc connection failed")

// DefaultTransferLimit bounds the recent transfers fetched per wallet.
const DefaultTransferLimit = 5

// transferCategories are the asset transfer kinds fed into the wallet graph.
var transferCategories = []string{"external", "erc20", "erc721"}

// Config configures the client.
type Config struct {
	RPCURL        string
	TransferLimit int
	Timeout       time.Duration // per call, 0 leaves the caller's deadline
}

// EthReader is the subset of ethclient the provider needs.
type EthReader interface {
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// RPCCaller issues raw JSON-RPC calls for non-standard methods.
type RPCCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Client implements domain.BlockchainDataProvider. Each call is a single
// attempt; failures are returned to the caller to degrade.
type Client struct {
	eth     EthReader
	rpc     RPCCaller
	closer  func()
	limit   int
	timeout time.Duration
}

var _ domain.BlockchainDataProvider = (*Client)(nil)

// Dial connects to the endpoint in cfg.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("%w: RPC URL required", ErrRPCConnection)
	}

	rc, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRPCConnection, err)
	}

	c := New(ethclient.NewClient(rc), rc, cfg)
	c.closer = rc.Close
	return c, nil
}

// New builds a client from existing connections.
func New(eth EthReader, caller RPCCaller, cfg Config) *Client {
	limit := cfg.TransferLimit
	if limit <= 0 {
		limit = DefaultTransferLimit
	}
	return &Client{
		eth:     eth,
		rpc:     caller,
		limit:   limit,
		timeout: cfg.Timeout,
	}
}

// TxCount returns the confirmed nonce of address.
func (c *Client) TxCount(ctx context.Context, address string) (int64, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	nonce, err := c.eth.NonceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("eth_getTransactionCount %s: %w", address, err)
	}
	return int64(nonce), nil
}

// ContractCode returns the deployed bytecode of address as 0x-prefixed hex.
func (c *Client) ContractCode(ctx context.Context, address string) (string, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	code, err := c.eth.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return "", fmt.Errorf("eth_getCode %s: %w", address, err)
	}
	return hexutil.Encode(code), nil
}

type assetTransfersParams struct {
	FromBlock   string   `json:"fromBlock"`
	ToBlock     string   `json:"toBlock"`
	FromAddress string   `json:"fromAddress"`
	Category    []string `json:"category"`
	MaxCount    string   `json:"maxCount"`
}

type assetTransfersResult struct {
	Transfers []struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"transfers"`
}

// RecentTransfers returns up to the configured number of transfers sent by
// address, using the alchemy_getAssetTransfers extension.
func (c *Client) RecentTransfers(ctx context.Context, address string) ([]domain.Transfer, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	params := assetTransfersParams{
		FromBlock:   "0x0",
		ToBlock:     "latest",
		FromAddress: address,
		Category:    transferCategories,
		MaxCount:    hexutil.EncodeUint64(uint64(c.limit)),
	}

	var result assetTransfersResult
	if err := c.rpc.CallContext(ctx, &result, "alchemy_getAssetTransfers", params); err != nil {
		return nil, fmt.Errorf("alchemy_getAssetTransfers %s: %w", address, err)
	}

	transfers := make([]domain.Transfer, 0, min(len(result.Transfers), c.limit))
	for _, t := range result.Transfers {
		if len(transfers) == c.limit {
			break
		}
		transfers = append(transfers, domain.Transfer{
			From: strings.ToLower(t.From),
			To:   strings.ToLower(t.To),
		})
	}
	return transfers, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
