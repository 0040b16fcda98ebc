package app

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/logger"
)

type fullLiquidity struct{}

func (fullLiquidity) PairLiquidityScore(a, b common.Address) float64 { return 0.8 }
func (fullLiquidity) HasLiquidity(a, b common.Address) bool          { return true }

type flatWeights struct{}

func (flatWeights) Weight(asset.AssetID) float64 { return 1.0 }

func testToken(t *testing.T, symbol string, lastByte byte, cat asset.Category) *asset.Asset {
	t.Helper()
	addr := common.BytesToAddress([]byte{lastByte})
	return asset.NewAsset(asset.NewTokenAssetID(1, addr), symbol, 18, cat)
}

func testUniverse(t *testing.T) []*asset.Asset {
	t.Helper()
	return []*asset.Asset{
		testToken(t, "USDC", 0x01, asset.CategoryStablecoin),
		testToken(t, "WETH", 0x02, asset.CategoryMajor),
		testToken(t, "DAI", 0x03, asset.CategoryStablecoin),
		testToken(t, "LINK", 0x04, asset.CategoryDeFi),
		testToken(t, "UNI", 0x05, asset.CategoryOther),
	}
}

func newTestGenerator(t *testing.T, seed int64, lengths []int) *CycleGenerator {
	t.Helper()

	cfg := GeneratorConfig{
		CycleLengths:     lengths,
		BeamWidthPerHop:  25,
		ExplorationRatio: 0.1,
		SeedTokens:       5,
		Seed:             seed,
		CacheTTL:         30 * time.Second,
	}
	g := NewCycleGenerator(cfg, fullLiquidity{}, flatWeights{}, logger.New(io.Discard, logger.LevelError, "test", nil))
	t.Cleanup(g.Close)
	return g
}

func TestGenerate_CycleInvariants(t *testing.T) {
	g := newTestGenerator(t, 1, []int{3, 4, 5})
	universe := testUniverse(t)

	cycles := g.Generate(context.Background(), universe)
	if len(cycles) == 0 {
		t.Fatal("expected cycles over a fully connected universe")
	}

	for _, c := range cycles {
		hops := c.Len()
		// length counts tokens with the closing return, so hops is
		// one less than a configured length.
		if hops < 2 || hops > 4 {
			t.Errorf("cycle %s has %d hops, want 2..4", c, hops)
		}

		seen := map[string]bool{}
		for _, tok := range c.Tokens {
			addr := tok.Address().Hex()
			if seen[addr] {
				t.Errorf("cycle %s repeats token %s", c, tok.Symbol())
			}
			seen[addr] = true
		}

		in, out := c.Hop(hops - 1)
		if in.Equals(out) {
			t.Errorf("cycle %s closing hop is degenerate", c)
		}
		if !out.Equals(c.Base()) {
			t.Errorf("cycle %s does not close at its base", c)
		}
	}
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	universe := testUniverse(t)

	fingerprints := func(seed int64) []string {
		g := newTestGenerator(t, seed, []int{3, 4})
		var fps []string
		for _, c := range g.Generate(context.Background(), universe) {
			fps = append(fps, c.Fingerprint())
		}
		sort.Strings(fps)
		return fps
	}

	a := fingerprints(7)
	b := fingerprints(7)

	if len(a) != len(b) {
		t.Fatalf("cycle counts differ across runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fingerprints differ at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestGenerate_CachedWithinTTL(t *testing.T) {
	g := newTestGenerator(t, 1, []int{3})
	universe := testUniverse(t)

	first := g.Generate(context.Background(), universe)
	second := g.Generate(context.Background(), universe)

	if len(first) != len(second) {
		t.Fatalf("cached result differs: %d vs %d cycles", len(first), len(second))
	}
}

type noLiquidity struct{}

func (noLiquidity) PairLiquidityScore(a, b common.Address) float64 { return 0.1 }
func (noLiquidity) HasLiquidity(a, b common.Address) bool          { return false }

func TestGenerate_EmptyBeamStopsEarly(t *testing.T) {
	cfg := GeneratorConfig{
		CycleLengths:     []int{3, 4},
		BeamWidthPerHop:  25,
		ExplorationRatio: 0.1,
		SeedTokens:       5,
		Seed:             1,
		CacheTTL:         time.Second,
	}
	g := NewCycleGenerator(cfg, noLiquidity{}, flatWeights{}, logger.New(io.Discard, logger.LevelError, "test", nil))
	t.Cleanup(g.Close)

	cycles := g.Generate(context.Background(), testUniverse(t))
	if len(cycles) != 0 {
		t.Errorf("expected no cycles without liquidity, got %d", len(cycles))
	}
}
