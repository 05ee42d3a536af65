package domain

import "context"

// EmptyCode is what eth_getCode returns for an address without code.
const EmptyCode = "0x"

// BlockchainDataProvider reads account state from an Ethereum node.
type BlockchainDataProvider interface {
	// TxCount returns the number of transactions sent from address.
	TxCount(ctx context.Context, address string) (int64, error)

	// ContractCode returns the deployed bytecode as 0x-prefixed hex ("0x" = none).
	ContractCode(ctx context.Context, address string) (string, error)

	// RecentTransfers returns a bounded list of the address's latest transfers.
	RecentTransfers(ctx context.Context, address string) ([]Transfer, error)
}

// ContractVerificationProvider reports whether a contract's source is published.
type ContractVerificationProvider interface {
	CheckVerified(ctx context.Context, address string) (Verification, error)
}
