package app

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/logger"
)

const (
	// Weight bounds. Feedback nudges never push a token outside these.
	minTokenWeight = 0.1
	maxTokenWeight = 3.0

	metadataBatchSize = 8
)

// TokenCatalog holds the tradeable token universe with per-token
// priority weights. Loading is tolerant: tokens whose metadata cannot
// be resolved on-chain are kept with placeholder metadata rather than
// dropped, so a flaky node never shrinks the search space.
type TokenCatalog struct {
	chainID  uint64
	loader   MetadataLoader
	registry *asset.Registry
	logger   logger.LoggerInterface

	mu       sync.RWMutex
	tokens   []*asset.Asset
	bySymbol map[string]*asset.Asset
	weights  map[asset.AssetID]float64
}

// NewTokenCatalog creates an empty catalog. Call Load before use.
func NewTokenCatalog(chainID uint64, loader MetadataLoader, registry *asset.Registry, log logger.LoggerInterface) *TokenCatalog {
	return &TokenCatalog{
		chainID:  chainID,
		loader:   loader,
		registry: registry,
		logger:   log,
		bySymbol: make(map[string]*asset.Asset),
		weights:  make(map[asset.AssetID]float64),
	}
}

// Load resolves metadata for the configured tokens and populates the
// catalog. Configured symbol and decimals act as overrides when set,
// otherwise on-chain values are used.
func (c *TokenCatalog) Load(ctx context.Context, tokens []config.TokenConfig) error {
	if len(tokens) == 0 {
		return apperror.New(apperror.CodeTokenLoadFailed,
			apperror.WithContext("no tokens configured"))
	}

	resolved := make([]*asset.Asset, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataBatchSize)

	for i, tc := range tokens {
		g.Go(func() error {
			resolved[i] = c.resolveToken(gctx, tc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return apperror.New(apperror.CodeTokenLoadFailed, apperror.WithCause(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = c.tokens[:0]
	for _, a := range resolved {
		c.tokens = append(c.tokens, a)
		c.bySymbol[strings.ToUpper(a.Symbol())] = a
		if _, ok := c.weights[a.ID()]; !ok {
			c.weights[a.ID()] = a.Category().BaseWeight()
		}
		c.registry.Register(a)
	}

	c.logger.Info(ctx, "token catalog loaded", "tokens", len(c.tokens))
	return nil
}

func (c *TokenCatalog) resolveToken(ctx context.Context, tc config.TokenConfig) *asset.Asset {
	addr := common.HexToAddress(tc.Address)
	id := asset.NewTokenAssetID(c.chainID, addr)
	category := asset.ParseCategory(tc.Category)

	meta, err := c.loader.Metadata(ctx, addr)
	if err != nil {
		c.logger.Warn(ctx, "token metadata unavailable, using placeholder",
			"address", tc.Address, "error", err)

		if tc.Symbol != "" {
			decimals := uint8(tc.Decimals)
			if decimals == 0 {
				decimals = 18
			}
			return asset.NewAsset(id, tc.Symbol, decimals, category)
		}
		return asset.Placeholder(c.chainID, addr)
	}

	symbol := meta.Symbol
	if tc.Symbol != "" {
		symbol = tc.Symbol
	}
	decimals := meta.Decimals
	if tc.Decimals != 0 {
		decimals = uint8(tc.Decimals)
	}

	return asset.NewAssetWithName(id, symbol, meta.Name, decimals, category)
}

// Tokens returns the loaded token universe.
func (c *TokenCatalog) Tokens() []*asset.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*asset.Asset, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// ByAddress looks up a token by contract address.
func (c *TokenCatalog) ByAddress(addr common.Address) (*asset.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.tokens {
		if a.Address() == addr {
			return a, true
		}
	}
	return nil, false
}

// BySymbol looks up a token by symbol, case-insensitive.
func (c *TokenCatalog) BySymbol(symbol string) (*asset.Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.bySymbol[strings.ToUpper(symbol)]
	return a, ok
}

// IsStablecoin reports whether the token at addr is a stablecoin.
func (c *TokenCatalog) IsStablecoin(addr common.Address) bool {
	a, ok := c.ByAddress(addr)
	return ok && a.IsStablecoin()
}

// IsMajor reports whether the token at addr is a major asset.
func (c *TokenCatalog) IsMajor(addr common.Address) bool {
	a, ok := c.ByAddress(addr)
	return ok && a.IsMajor()
}

// Weight returns the current priority weight for a token. Unknown
// tokens get the neutral weight 1.0.
func (c *TokenCatalog) Weight(id asset.AssetID) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if w, ok := c.weights[id]; ok {
		return w
	}
	return 1.0
}

// AdjustWeight shifts a token's weight by delta, clamped to the
// catalog bounds.
func (c *TokenCatalog) AdjustWeight(id asset.AssetID, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.weights[id]
	if !ok {
		w = 1.0
	}
	w += delta
	if w < minTokenWeight {
		w = minTokenWeight
	}
	if w > maxTokenWeight {
		w = maxTokenWeight
	}
	c.weights[id] = w
}

// Count returns the number of loaded tokens.
func (c *TokenCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}
