// Package asset provides a type-safe model for on-chain tokens.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (USD conversion, display).
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID uniquely identifies a token by chain and contract address.
// This is the TRUE identity - not the symbol.
type AssetID struct {
	chainID uint64
	address common.Address
}

// NewTokenAssetID creates an AssetID for an ERC20 token.
func NewTokenAssetID(chainID uint64, addr common.Address) AssetID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero")
	}
	return AssetID{
		chainID: chainID,
		address: addr,
	}
}

// ChainID returns the chain ID.
func (id AssetID) ChainID() uint64 {
	return id.chainID
}

// Address returns the token contract address.
func (id AssetID) Address() common.Address {
	return id.address
}

// String returns a human-readable representation.
func (id AssetID) String() string {
	return fmt.Sprintf("chain:%d/%s", id.chainID, id.address.Hex())
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id.chainID == other.chainID && id.address == other.address
}
