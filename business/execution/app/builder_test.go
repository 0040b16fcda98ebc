package app

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	discovery "github.com/mvaldes/flashcycle/business/discovery/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/logger"
)

type fixedOracle struct {
	price decimal.Decimal
}

func (o fixedOracle) TokenPriceUSD(context.Context, *asset.Asset) (decimal.Decimal, error) {
	return o.price, nil
}

// scoreByAddr returns per-pair scores keyed by the lower address byte
// of either endpoint, defaulting to 0.5.
type scoreByAddr struct {
	scores map[byte]float64
}

func (s scoreByAddr) PairLiquidityScore(a, b common.Address) float64 {
	for _, addr := range []common.Address{a, b} {
		if v, ok := s.scores[addr[len(addr)-1]]; ok {
			return v
		}
	}
	return 0.5
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testAsset(t *testing.T, symbol string, lastByte byte, decimals uint8) *asset.Asset {
	t.Helper()
	addr := common.BytesToAddress([]byte{lastByte})
	return asset.NewAsset(asset.NewTokenAssetID(1, addr), symbol, decimals, asset.CategoryMajor)
}

// evaluated builds a priced cycle over the given tokens where every
// hop was served by the named venue.
func evaluated(t *testing.T, tokens []*asset.Asset, amountIn, profit int64, pct float64, venue liquidity.DEXID) *discovery.EvaluatedCycle {
	t.Helper()

	cycle := discovery.NewCycle(tokens)

	in := big.NewInt(amountIn)
	out := new(big.Int).Add(in, big.NewInt(profit))

	quotes := make([]*liquidity.Quote, 0, cycle.Len())
	for i := 0; i < cycle.Len(); i++ {
		a, b := cycle.Hop(i)
		quotes = append(quotes, liquidity.NewQuote(venue, a.Address(), b.Address(), in, out))
	}

	return &discovery.EvaluatedCycle{
		Cycle:     cycle,
		Quotes:    quotes,
		AmountIn:  in,
		AmountOut: out,
		Profit:    big.NewInt(profit),
		ProfitPct: pct,
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	b := NewStrategyBuilder(BuilderConfig{SlippageBps: 50}, fixedOracle{price: decimal.NewFromInt(1)}, scoreByAddr{}, testLogger())

	s, err := b.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s != nil {
		t.Error("empty input should yield no strategy")
	}
}

func TestBuild_PicksHighestProfitPct(t *testing.T) {
	usdc := testAsset(t, "USDC", 0x01, 6)
	weth := testAsset(t, "WETH", 0x02, 18)
	dai := testAsset(t, "DAI", 0x03, 18)

	candidates := []*discovery.EvaluatedCycle{
		evaluated(t, []*asset.Asset{usdc, weth}, 1_000_000_000, 5_000_000, 0.5, "uniswap-v2"),
		evaluated(t, []*asset.Asset{usdc, dai}, 1_000_000_000, 12_000_000, 1.2, "uniswap-v3"),
	}

	b := NewStrategyBuilder(
		BuilderConfig{SlippageBps: 50, MinProfitUSD: decimal.NewFromInt(1)},
		fixedOracle{price: decimal.NewFromInt(1)}, scoreByAddr{}, testLogger(),
	)

	s, err := b.Build(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s == nil {
		t.Fatal("expected a strategy")
	}
	if s.ProfitPct != 1.2 {
		t.Errorf("selected pct = %v, want 1.2", s.ProfitPct)
	}
	if !s.Base.Equals(usdc) {
		t.Errorf("base = %s, want USDC", s.Base.Symbol())
	}
}

func TestBuild_TieBreaksOnPairScore(t *testing.T) {
	usdc := testAsset(t, "USDC", 0x01, 6)
	weth := testAsset(t, "WETH", 0x02, 18)
	dai := testAsset(t, "DAI", 0x03, 18)

	candidates := []*discovery.EvaluatedCycle{
		evaluated(t, []*asset.Asset{usdc, weth}, 1_000_000_000, 10_000_000, 1.0, "uniswap-v2"),
		evaluated(t, []*asset.Asset{usdc, dai}, 1_000_000_000, 10_000_000, 1.0, "uniswap-v3"),
	}

	// DAI hops score higher than WETH hops.
	scores := scoreByAddr{scores: map[byte]float64{0x02: 0.3, 0x03: 0.9}}

	b := NewStrategyBuilder(
		BuilderConfig{SlippageBps: 50, MinProfitUSD: decimal.NewFromInt(1)},
		fixedOracle{price: decimal.NewFromInt(1)}, scores, testLogger(),
	)

	s, err := b.Build(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s == nil {
		t.Fatal("expected a strategy")
	}
	if s.Legs[1].Path[0] != dai.Address() && s.Legs[0].Path[1] != dai.Address() {
		t.Error("tie should break toward the better-scored cycle")
	}
}

func TestBuild_USDFloorRejects(t *testing.T) {
	usdc := testAsset(t, "USDC", 0x01, 6)
	weth := testAsset(t, "WETH", 0x02, 18)

	// 10 USDC profit at $1 each, against a $50 floor.
	candidates := []*discovery.EvaluatedCycle{
		evaluated(t, []*asset.Asset{usdc, weth}, 1_000_000_000, 10_000_000, 1.0, "uniswap-v2"),
	}

	b := NewStrategyBuilder(
		BuilderConfig{SlippageBps: 50, MinProfitUSD: decimal.NewFromInt(50)},
		fixedOracle{price: decimal.NewFromInt(1)}, scoreByAddr{}, testLogger(),
	)

	s, err := b.Build(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s != nil {
		t.Error("profit below the usd floor should yield no strategy")
	}
}

func TestBuild_LegsCoverTheCycle(t *testing.T) {
	usdc := testAsset(t, "USDC", 0x01, 6)
	weth := testAsset(t, "WETH", 0x02, 18)
	dai := testAsset(t, "DAI", 0x03, 18)

	candidates := []*discovery.EvaluatedCycle{
		evaluated(t, []*asset.Asset{usdc, weth, dai}, 1_000_000_000, 10_000_000, 1.0, "uniswap-v2"),
	}

	b := NewStrategyBuilder(
		BuilderConfig{SlippageBps: 50, MinProfitUSD: decimal.NewFromInt(1)},
		fixedOracle{price: decimal.NewFromInt(1)}, scoreByAddr{}, testLogger(),
	)

	s, err := b.Build(context.Background(), candidates)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s == nil {
		t.Fatal("expected a strategy")
	}

	if got := s.TotalHops(); got != 3 {
		t.Errorf("total hops = %d, want 3", got)
	}

	// The legs chain: first starts and second ends at the base, and
	// the second picks up where the first stops.
	first, second := s.Legs[0], s.Legs[1]
	if first.Path[0] != usdc.Address() {
		t.Error("first leg should start at the base token")
	}
	if second.Path[len(second.Path)-1] != usdc.Address() {
		t.Error("second leg should return to the base token")
	}
	if first.Path[len(first.Path)-1] != second.Path[0] {
		t.Error("legs should share the midpoint token")
	}

	if s.MinAmountOut == nil || s.MinAmountOut.Sign() <= 0 {
		t.Error("expected a positive revert floor")
	}
}
