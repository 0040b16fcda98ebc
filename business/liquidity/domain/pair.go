// Package domain contains the core domain types for the liquidity context.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DEXID identifies a configured venue adapter.
type DEXID string

// PairKey is a direction-independent identifier for a token pair.
// Addresses are ordered so (A,B) and (B,A) map to the same key.
type PairKey string

// NewPairKey builds the canonical key for a token pair.
func NewPairKey(a, b common.Address) PairKey {
	x, y := strings.ToLower(a.Hex()), strings.ToLower(b.Hex())
	if x > y {
		x, y = y, x
	}
	return PairKey(x + ":" + y)
}
