package risk

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the length of a 0x-prefixed hex address.
const AddressLength = 42

// burnAddresses have no known private key; anything sent there is lost.
var burnAddresses = map[string]struct{}{
	"0x0000000000000000000000000000000000000000": {},
	"0x000000000000000000000000000000000000dead": {},
	"0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead": {},
	"0xdead000000000000000042069420694206942069": {},
}

// IsValidAddress reports whether s is "0x" followed by 40 hex characters.
// An uppercase "0X" prefix is rejected.
func IsValidAddress(s string) bool {
	return len(s) == AddressLength && strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// IsBurnAddress reports whether s is a known burn address, ignoring case.
func IsBurnAddress(s string) bool {
	_, ok := burnAddresses[strings.ToLower(s)]
	return ok
}
