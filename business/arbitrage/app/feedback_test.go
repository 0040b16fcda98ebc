package app

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	discovery "github.com/mvaldes/flashcycle/business/discovery/domain"
	execution "github.com/mvaldes/flashcycle/business/execution/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	market "github.com/mvaldes/flashcycle/business/market/app"
	"github.com/mvaldes/flashcycle/internal/apperror"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/config"
	"github.com/mvaldes/flashcycle/internal/logger"
)

var (
	usdcAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	wethAddr = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

type mapLoader struct {
	meta map[common.Address]*market.TokenMetadata
}

func (m *mapLoader) Metadata(_ context.Context, addr common.Address) (*market.TokenMetadata, error) {
	if md, ok := m.meta[addr]; ok {
		return md, nil
	}
	return nil, errors.New("unknown token")
}

type dollarOracle struct {
	err error
}

func (o dollarOracle) TokenPriceUSD(context.Context, *asset.Asset) (decimal.Decimal, error) {
	if o.err != nil {
		return decimal.Zero, o.err
	}
	return decimal.NewFromInt(1), nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

type fixture struct {
	feedback *ScoringFeedback
	scores   *liquidity.ScoreBook
	catalog  *market.TokenCatalog
	usdc     *asset.Asset
	weth     *asset.Asset
}

func newFixture(t *testing.T, oracle dollarOracle) *fixture {
	t.Helper()

	loader := &mapLoader{meta: map[common.Address]*market.TokenMetadata{
		usdcAddr: {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		wethAddr: {Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
	}}

	catalog := market.NewTokenCatalog(1, loader, asset.NewRegistry(), testLogger())
	err := catalog.Load(context.Background(), []config.TokenConfig{
		{Address: usdcAddr.Hex(), Category: "stablecoin"},
		{Address: wethAddr.Hex(), Category: "major"},
	})
	if err != nil {
		t.Fatalf("catalog load: %v", err)
	}

	scores := liquidity.NewScoreBook()
	return &fixture{
		feedback: NewScoringFeedback(scores, catalog, oracle, 100, testLogger()),
		scores:   scores,
		catalog:  catalog,
		usdc:     mustToken(t, catalog, "USDC"),
		weth:     mustToken(t, catalog, "WETH"),
	}
}

func mustToken(t *testing.T, c *market.TokenCatalog, symbol string) *asset.Asset {
	t.Helper()
	a, ok := c.BySymbol(symbol)
	if !ok {
		t.Fatalf("token %s not loaded", symbol)
	}
	return a
}

func (f *fixture) cycle() *discovery.Cycle {
	return discovery.NewCycle([]*asset.Asset{f.usdc, f.weth})
}

func (f *fixture) strategy() *execution.Strategy {
	legs := [2]execution.Leg{
		{Path: []common.Address{usdcAddr, wethAddr}, DEXes: []liquidity.DEXID{"uniswap-v2"}},
		{Path: []common.Address{wethAddr, usdcAddr}, DEXes: []liquidity.DEXID{"uniswap-v3"}},
	}
	return execution.NewStrategy(f.usdc, legs, big.NewInt(1_000_000_000), big.NewInt(1_004_000_000), big.NewInt(10_000_000), 1.0)
}

func (f *fixture) pairScore() float64 {
	return f.scores.PairScore(liquidity.NewPairKey(usdcAddr, wethAddr))
}

func TestOnDetection_Profitable(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	f.feedback.OnDetection(f.cycle(), true)

	// Both hops of a two-token cycle touch the same pair, so the
	// blend applies twice: ((0.5*0.9+0.1)*0.9)+0.1.
	want := (0.5*0.9+0.1)*0.9 + 0.1
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}

	if got, want := f.catalog.Weight(f.usdc.ID()), 1.0+0.02; got != want {
		t.Errorf("usdc weight = %v, want %v", got, want)
	}
	if got, want := f.catalog.Weight(f.weth.ID()), 0.85+0.02; got != want {
		t.Errorf("weth weight = %v, want %v", got, want)
	}
}

func TestOnDetection_Unprofitable(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	f.feedback.OnDetection(f.cycle(), false)

	want := 0.5 * 0.98 * 0.98
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}
	if got, want := f.catalog.Weight(f.usdc.ID()), 1.0-0.005; got != want {
		t.Errorf("usdc weight = %v, want %v", got, want)
	}
}

func TestOnExecution_SuccessWithProfit(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	// 50 USDC realized at $1 against a $100 reference: half credit,
	// applied once per leg.
	result := &execution.Result{
		Strategy:       f.strategy(),
		State:          execution.StateConfirmed,
		RealizedProfit: big.NewInt(50_000_000),
	}
	f.feedback.OnExecution(context.Background(), result)

	want := (0.5*0.8+0.1)*0.8 + 0.1
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}

	// The base token appears in both legs and is boosted twice.
	if got, want := f.catalog.Weight(f.usdc.ID()), 1.0+0.10+0.10; got != want {
		t.Errorf("usdc weight = %v, want %v", got, want)
	}
}

func TestOnExecution_SuccessWithoutProfitEvent(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	result := &execution.Result{
		Strategy: f.strategy(),
		State:    execution.StateConfirmed,
	}
	f.feedback.OnExecution(context.Background(), result)

	want := (0.5*0.9+0.1)*0.9 + 0.1
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}
}

func TestOnExecution_Failure(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	result := &execution.Result{
		Strategy: f.strategy(),
		State:    execution.StateFailed,
	}
	f.feedback.OnExecution(context.Background(), result)

	want := 0.5 * 0.95 * 0.95
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}
	if got, want := f.catalog.Weight(f.weth.ID()), 0.85-0.05-0.05; got != want {
		t.Errorf("weth weight = %v, want %v", got, want)
	}
}

func TestOnExecution_AmbiguousSkipped(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	result := &execution.Result{
		Strategy: f.strategy(),
		State:    execution.StateTimedOut,
	}
	f.feedback.OnExecution(context.Background(), result)

	if got := f.pairScore(); got != liquidity.DefaultPairScore {
		t.Errorf("pair score = %v, want untouched default", got)
	}
	if got := f.catalog.Weight(f.usdc.ID()); got != 1.0 {
		t.Errorf("usdc weight = %v, want untouched 1.0", got)
	}
}

func TestOnExecution_ValidationFailureSkipped(t *testing.T) {
	f := newFixture(t, dollarOracle{})

	// A strategy rejected before submission never touched the chain,
	// so neither scores nor weights should move.
	result := &execution.Result{
		Strategy: f.strategy(),
		State:    execution.StateFailed,
		Err: apperror.New(apperror.CodeValidationError,
			apperror.WithContext("expired deadline")),
	}
	f.feedback.OnExecution(context.Background(), result)

	if got := f.pairScore(); got != liquidity.DefaultPairScore {
		t.Errorf("pair score = %v, want untouched default", got)
	}
	if got := f.catalog.Weight(f.usdc.ID()); got != 1.0 {
		t.Errorf("usdc weight = %v, want untouched 1.0", got)
	}
	if got := f.catalog.Weight(f.weth.ID()); got != 0.85 {
		t.Errorf("weth weight = %v, want untouched 0.85", got)
	}
}

func TestOnExecution_OracleFailureFullCredit(t *testing.T) {
	f := newFixture(t, dollarOracle{err: errors.New("feed down")})

	result := &execution.Result{
		Strategy:       f.strategy(),
		State:          execution.StateConfirmed,
		RealizedProfit: big.NewInt(1),
	}
	f.feedback.OnExecution(context.Background(), result)

	// Full credit: keep 0.8, add 0.2, once per leg.
	want := (0.5*0.8+0.2)*0.8 + 0.2
	if got := f.pairScore(); got != want {
		t.Errorf("pair score = %v, want %v", got, want)
	}
}
