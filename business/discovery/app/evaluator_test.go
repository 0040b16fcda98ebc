package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mvaldes/flashcycle/business/discovery/domain"
	liquidity "github.com/mvaldes/flashcycle/business/liquidity/domain"
	"github.com/mvaldes/flashcycle/internal/asset"
	"github.com/mvaldes/flashcycle/internal/logger"
)

// tableQuotes serves quotes from a (in, out, amountIn) lookup table.
type tableQuotes struct {
	quotes map[string]*big.Int
}

func quoteKey(in, out common.Address, amount *big.Int) string {
	return fmt.Sprintf("%s|%s|%s", in.Hex(), out.Hex(), amount.String())
}

func (q *tableQuotes) set(in, out common.Address, amountIn, amountOut *big.Int) {
	if q.quotes == nil {
		q.quotes = make(map[string]*big.Int)
	}
	q.quotes[quoteKey(in, out, amountIn)] = amountOut
}

func (q *tableQuotes) BestQuote(_ context.Context, in, out common.Address, amountIn *big.Int) (*liquidity.Quote, error) {
	amountOut, ok := q.quotes[quoteKey(in, out, amountIn)]
	if !ok {
		return nil, errors.New("no venue quoted the pair")
	}
	return liquidity.NewQuote("test-venue", in, out, amountIn, amountOut), nil
}

func usdc(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000))
}

func weth(milli int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(milli), big.NewInt(1_000_000_000_000_000))
}

func newTestEvaluator(t *testing.T, quotes QuoteProvider, amounts []int64, minBps float64) *ProfitEvaluator {
	t.Helper()
	return NewProfitEvaluator(EvaluatorConfig{
		TestAmounts:   amounts,
		MinProfitBps:  minBps,
		MaxProfitable: 10,
		BatchSize:     2,
	}, quotes, logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestEvaluate_ProfitableCycle(t *testing.T) {
	usdcToken := testToken(t, "USDC", 0x01, asset.CategoryStablecoin)
	usdcAsset := asset.NewAsset(usdcToken.ID(), "USDC", 6, asset.CategoryStablecoin)
	wethAsset := testToken(t, "WETH", 0x02, asset.CategoryMajor)

	cycle := domain.NewCycle([]*asset.Asset{usdcAsset, wethAsset})

	// 1000 USDC -> 0.5 WETH -> 1010 USDC: one percent profit.
	quotes := &tableQuotes{}
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(1000), weth(500))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(500), usdc(1010))

	eval := newTestEvaluator(t, quotes, []int64{1000}, 5)

	results, err := eval.Evaluate(context.Background(), []*domain.Cycle{cycle})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d profitable cycles, want 1", len(results))
	}

	got := results[0]
	if got.ProfitPct != 1.0 {
		t.Errorf("profit pct = %v, want 1.0", got.ProfitPct)
	}
	if got.Profit.Cmp(usdc(10)) != 0 {
		t.Errorf("profit = %s, want %s raw units", got.Profit, usdc(10))
	}
	if len(got.Quotes) != 2 {
		t.Errorf("quote chain length = %d, want 2", len(got.Quotes))
	}
}

func TestEvaluate_FirstProfitableNotionalWins(t *testing.T) {
	usdcAsset := asset.NewAsset(
		asset.NewTokenAssetID(1, common.BytesToAddress([]byte{0x01})),
		"USDC", 6, asset.CategoryStablecoin,
	)
	wethAsset := testToken(t, "WETH", 0x02, asset.CategoryMajor)

	cycle := domain.NewCycle([]*asset.Asset{usdcAsset, wethAsset})

	// Both notionals are profitable; the smaller one must be chosen
	// even though the larger yields more absolute profit.
	quotes := &tableQuotes{}
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(10), weth(5))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(5), usdc(11))
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(1000), weth(500))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(500), usdc(1200))

	eval := newTestEvaluator(t, quotes, []int64{1000, 10}, 5)

	results, err := eval.Evaluate(context.Background(), []*domain.Cycle{cycle})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d profitable cycles, want 1", len(results))
	}
	if results[0].AmountIn.Cmp(usdc(10)) != 0 {
		t.Errorf("winning notional = %s, want %s", results[0].AmountIn, usdc(10))
	}
}

func TestEvaluate_BrokenHopSkipsCycle(t *testing.T) {
	usdcAsset := asset.NewAsset(
		asset.NewTokenAssetID(1, common.BytesToAddress([]byte{0x01})),
		"USDC", 6, asset.CategoryStablecoin,
	)
	wethAsset := testToken(t, "WETH", 0x02, asset.CategoryMajor)

	cycle := domain.NewCycle([]*asset.Asset{usdcAsset, wethAsset})

	// Only the first hop is quotable; the closing hop always fails.
	quotes := &tableQuotes{}
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(10), weth(5))
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(1000), weth(500))

	eval := newTestEvaluator(t, quotes, []int64{10, 1000}, 5)

	results, err := eval.Evaluate(context.Background(), []*domain.Cycle{cycle})
	if err != nil {
		t.Fatalf("a broken cycle must not abort the pass: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d profitable cycles, want 0", len(results))
	}
}

func TestEvaluate_FirstPositiveNotionalSettlesCycle(t *testing.T) {
	usdcAsset := asset.NewAsset(
		asset.NewTokenAssetID(1, common.BytesToAddress([]byte{0x01})),
		"USDC", 6, asset.CategoryStablecoin,
	)
	wethAsset := testToken(t, "WETH", 0x02, asset.CategoryMajor)

	cycle := domain.NewCycle([]*asset.Asset{usdcAsset, wethAsset})

	// The small notional ends barely positive (well under 5 bps), the
	// large one would clear the floor easily. The first positive walk
	// settles the cycle, so the large notional must never rescue it.
	quotes := &tableQuotes{}
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(10), weth(5))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(5), big.NewInt(10_000_100))
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(1000), weth(500))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(500), usdc(1010))

	eval := newTestEvaluator(t, quotes, []int64{10, 1000}, 5)

	results, err := eval.Evaluate(context.Background(), []*domain.Cycle{cycle})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d profitable cycles, want 0 (thin win must not escalate)", len(results))
	}
}

func TestEvaluate_BelowThresholdExcluded(t *testing.T) {
	usdcAsset := asset.NewAsset(
		asset.NewTokenAssetID(1, common.BytesToAddress([]byte{0x01})),
		"USDC", 6, asset.CategoryStablecoin,
	)
	wethAsset := testToken(t, "WETH", 0x02, asset.CategoryMajor)

	cycle := domain.NewCycle([]*asset.Asset{usdcAsset, wethAsset})

	// 0.03% profit, below a 5 bps floor.
	quotes := &tableQuotes{}
	quotes.set(usdcAsset.Address(), wethAsset.Address(), usdc(1000), weth(500))
	quotes.set(wethAsset.Address(), usdcAsset.Address(), weth(500), big.NewInt(1_000_300_000))

	eval := newTestEvaluator(t, quotes, []int64{1000}, 5)

	results, err := eval.Evaluate(context.Background(), []*domain.Cycle{cycle})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d profitable cycles, want 0 below threshold", len(results))
	}
}
