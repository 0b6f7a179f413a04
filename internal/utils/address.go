package utils

import (
	"github.com/ethereum/go-ethereum/common"
)

// IsValidWalletAddress reports whether s is a 0x-prefixed 40-hex-character
// EVM address. Anything else is rejected before reaching deploy dispatch.
func IsValidWalletAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	return common.IsHexAddress(s)
}
