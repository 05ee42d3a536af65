package chain

import (
	"context"
	"errors"

	"github.com/opensource-finance/preflight/internal/domain"
)

// ErrNoEndpoint is returned by Offline for every call.
var ErrNoEndpoint = errors.New("no rpc endpoint configured")

// Offline is the provider used when no RPC endpoint is configured or the
// endpoint could not be dialed. Every read fails, so the pipeline falls back
// to its unknown defaults.
type Offline struct{}

var _ domain.BlockchainDataProvider = Offline{}

func (Offline) TxCount(ctx context.Context, address string) (int64, error) {
	return 0, ErrNoEndpoint
}

func (Offline) ContractCode(ctx context.Context, address string) (string, error) {
	return "", ErrNoEndpoint
}

func (Offline) RecentTransfers(ctx context.Context, address string) ([]domain.Transfer, error) {
	return nil, ErrNoEndpoint
}
