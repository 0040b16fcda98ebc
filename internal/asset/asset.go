package asset

import "github.com/ethereum/go-ethereum/common"

// Category classifies a token for search prioritization.
type Category string

const (
	CategoryStablecoin Category = "stablecoin"
	CategoryMajor      Category = "major"
	CategoryDeFi       Category = "defi"
	CategoryOther      Category = "other"
)

// BaseWeight returns the static search weight for a category.
// Stablecoins make the best cycle anchors, majors next.
func (c Category) BaseWeight() float64 {
	switch c {
	case CategoryStablecoin:
		return 1.0
	case CategoryMajor:
		return 0.85
	case CategoryDeFi:
		return 0.6
	default:
		return 0.4
	}
}

// ParseCategory maps a config string to a Category, defaulting to other.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryStablecoin, CategoryMajor, CategoryDeFi:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Asset represents the metadata of an ERC20 token.
// It is a reference entity with stable identity (AssetID).
// The symbol is NOT identity - just metadata for display.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
	category Category
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(id AssetID, symbol string, decimals uint8, category Category) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}

	return &Asset{
		id:       id,
		symbol:   symbol,
		decimals: decimals,
		category: category,
	}
}

// NewAssetWithName creates a new Asset with a human-readable name.
func NewAssetWithName(id AssetID, symbol, name string, decimals uint8, category Category) *Asset {
	a := NewAsset(id, symbol, decimals, category)
	a.name = name
	return a
}

// Placeholder creates an asset for a token whose metadata could not be
// resolved: shortened-address symbol and 18 decimals.
func Placeholder(chainID uint64, addr common.Address) *Asset {
	return NewAsset(NewTokenAssetID(chainID, addr), addr.Hex()[:8], 18, CategoryOther)
}

// ID returns the unique identifier for this asset.
func (a *Asset) ID() AssetID {
	return a.id
}

// Symbol returns the ticker symbol (e.g., "WETH", "USDC").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name (e.g., "USD Coin").
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// Category returns the token's classification.
func (a *Asset) Category() Category {
	return a.category
}

// IsStablecoin returns true for USD-pegged tokens.
func (a *Asset) IsStablecoin() bool {
	return a.category == CategoryStablecoin
}

// IsMajor returns true for blue-chip tokens (wrapped native, BTC).
func (a *Asset) IsMajor() bool {
	return a.category == CategoryMajor
}

// ChainID returns the chain ID.
func (a *Asset) ChainID() uint64 {
	return a.id.ChainID()
}

// Address returns the token contract address.
func (a *Asset) Address() common.Address {
	return a.id.Address()
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id.Equals(other.id)
}
