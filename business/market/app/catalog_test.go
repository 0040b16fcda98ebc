package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// fakeLoader serves metadata from a map and fails for everything else.
type fakeLoader struct {
	meta map[common.Address]*TokenMetadata
}

func (f *fakeLoader) Metadata(_ context.Context, addr common.Address) (*TokenMetadata, error) {
	if m, ok := f.meta[addr]; ok {
		return m, nil
	}
	return nil, errors.New("execution reverted")
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

var (
	usdcAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	wethAddr = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	junkAddr = common.HexToAddress("0x00000000000000000000000000000000000000a3")
)

func newLoadedCatalog(t *testing.T) *TokenCatalog {
	t.Helper()

	loader := &fakeLoader{meta: map[common.Address]*TokenMetadata{
		usdcAddr: {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		wethAddr: {Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
	}}

	c := NewTokenCatalog(1, loader, asset.NewRegistry(), testLogger())
	err := c.Load(context.Background(), []config.TokenConfig{
		{Address: usdcAddr.Hex(), Category: "stablecoin"},
		{Address: wethAddr.Hex(), Category: "major"},
		{Address: junkAddr.Hex(), Symbol: "JUNK", Category: "other"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoad_ResolvesOnChainMetadata(t *testing.T) {
	c := newLoadedCatalog(t)

	if c.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", c.Count())
	}

	usdc, ok := c.ByAddress(usdcAddr)
	if !ok {
		t.Fatal("USDC not found by address")
	}
	if usdc.Symbol() != "USDC" || usdc.Decimals() != 6 {
		t.Errorf("got %s/%d, want USDC/6", usdc.Symbol(), usdc.Decimals())
	}
	if !c.IsStablecoin(usdcAddr) {
		t.Error("USDC should be a stablecoin")
	}
	if !c.IsMajor(wethAddr) {
		t.Error("WETH should be a major")
	}
}

func TestLoad_ToleratesMetadataFailure(t *testing.T) {
	c := newLoadedCatalog(t)

	// The loader fails for this token but the configured symbol keeps
	// it in the universe with default decimals.
	junk, ok := c.BySymbol("junk")
	if !ok {
		t.Fatal("token with failed metadata should still be loaded")
	}
	if junk.Decimals() != 18 {
		t.Errorf("decimals = %d, want 18 default", junk.Decimals())
	}
}

func TestLoad_EmptyConfigRejected(t *testing.T) {
	c := NewTokenCatalog(1, &fakeLoader{}, asset.NewRegistry(), testLogger())
	if err := c.Load(context.Background(), nil); err == nil {
		t.Fatal("expected an error for an empty token list")
	}
}

func TestLoad_ConfigOverridesChain(t *testing.T) {
	loader := &fakeLoader{meta: map[common.Address]*TokenMetadata{
		usdcAddr: {Symbol: "USDC.e", Name: "Bridged USDC", Decimals: 6},
	}}

	c := NewTokenCatalog(1, loader, asset.NewRegistry(), testLogger())
	err := c.Load(context.Background(), []config.TokenConfig{
		{Address: usdcAddr.Hex(), Symbol: "USDC", Category: "stablecoin"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := c.BySymbol("USDC"); !ok {
		t.Error("configured symbol should override the on-chain one")
	}
}

func TestAdjustWeight_Additive(t *testing.T) {
	c := newLoadedCatalog(t)
	weth, _ := c.ByAddress(wethAddr)
	id := weth.ID()

	c.AdjustWeight(id, 0.10)
	if got, want := c.Weight(id), 0.85+0.10; got != want {
		t.Errorf("weight = %v, want %v", got, want)
	}

	c.AdjustWeight(id, -0.05)
	if got, want := c.Weight(id), 0.85+0.10-0.05; got != want {
		t.Errorf("weight = %v, want %v", got, want)
	}
}

func TestAdjustWeight_Clamped(t *testing.T) {
	c := newLoadedCatalog(t)
	usdc, _ := c.ByAddress(usdcAddr)
	id := usdc.ID()

	for i := 0; i < 200; i++ {
		c.AdjustWeight(id, 0.10)
	}
	if got := c.Weight(id); got != maxTokenWeight {
		t.Errorf("weight = %v, want clamped to %v", got, maxTokenWeight)
	}

	for i := 0; i < 200; i++ {
		c.AdjustWeight(id, -0.05)
	}
	if got := c.Weight(id); got != minTokenWeight {
		t.Errorf("weight = %v, want clamped to %v", got, minTokenWeight)
	}
}

func TestWeight_UnknownIsNeutral(t *testing.T) {
	c := newLoadedCatalog(t)
	unknown := asset.NewTokenAssetID(1, common.BytesToAddress([]byte{0xFF}))
	if got := c.Weight(unknown); got != 1.0 {
		t.Errorf("unknown token weight = %v, want 1.0", got)
	}
}
