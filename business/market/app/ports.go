// Package app contains the token catalog service for the market context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMetadata is on-chain ERC-20 metadata.
type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

// MetadataLoader fetches ERC-20 metadata from the chain.
type MetadataLoader interface {
	// Metadata loads symbol, name and decimals for a token contract.
	Metadata(ctx context.Context, address common.Address) (*TokenMetadata, error)
}
